package main

import (
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/crypto/ssh/terminal"
)

// genpasswdCommand mirrors original_source/tools/gen_passwd.py: generate
// a random shared secret, echo it once to the terminal with input
// suppressed so it never lands in shell history via a pasted
// confirmation.
var genpasswdCommand = &cli.Command{
	Name:  "genpasswd",
	Usage: "generate a new shared secret for the coordinator and snitches",
	Action: func(c *cli.Context) error {
		secret, err := randomSecret(32)
		if err != nil {
			return err
		}
		fmt.Println(secret)

		if terminal.IsTerminal(int(os.Stdin.Fd())) {
			fmt.Fprint(os.Stderr, "press enter to continue (input suppressed): ")
			if _, err := terminal.ReadPassword(int(os.Stdin.Fd())); err != nil {
				return err
			}
			fmt.Fprintln(os.Stderr)
		}
		return nil
	},
}

func randomSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate secret: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}
