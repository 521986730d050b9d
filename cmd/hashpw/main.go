// Command hashpw prints an Argon2id hash for INTERVIEWER_PASSWORD_HASH.
//
// Usage: hashpw <password>   (or pipe the password on stdin)
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	httpserver "github.com/fairyhunter13/ai-interview-assistant/internal/adapter/httpserver"
)

func main() {
	pw := ""
	if len(os.Args) > 1 {
		pw = os.Args[1]
	} else {
		line, _ := bufio.NewReader(os.Stdin).ReadString('\n')
		pw = strings.TrimRight(line, "\r\n")
	}
	hash, err := httpserver.HashPassword(pw, httpserver.DefaultArgon2Params)
	if err != nil {
		fmt.Fprintln(os.Stderr, "hashpw:", err)
		os.Exit(1)
	}
	fmt.Println(hash)
}
