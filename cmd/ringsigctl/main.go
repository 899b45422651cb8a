// Command ringsigctl is the command-line interface to the ring
// signature facade: sign a message on behalf of a ring, verify a
// signature, or mint a convenience RSA key for building test rings.
package main

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
	"golang.org/x/term"

	"github.com/udisondev/ringsig/internal/facade"
	"github.com/udisondev/ringsig/internal/keyio"
)

func main() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})))

	if err := app().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func app() *cli.App {
	return &cli.App{
		Name:  "ringsigctl",
		Usage: "sign and verify RSA ring signatures",
		Commands: []*cli.Command{
			signCommand(),
			verifyCommand(),
			genkeyCommand(),
		},
	}
}

func signCommand() *cli.Command {
	return &cli.Command{
		Name:  "sign",
		Usage: "produce a ring signature over a message",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "ring", Required: true, Usage: "path to the ring's PEM public keys"},
			&cli.StringFlag{Name: "key", Required: true, Usage: "path to the signer's private key PEM"},
			&cli.IntFlag{Name: "index", Required: true, Usage: "the signer's position in the ring"},
			&cli.StringFlag{Name: "message", Required: true, Usage: "message to sign"},
			&cli.StringFlag{Name: "out", Required: true, Usage: "output path for the signature"},
			&cli.StringFlag{Name: "password", Usage: "private key password (prompted if omitted)"},
		},
		Action: func(c *cli.Context) error {
			password := c.String("password")
			if password == "" {
				var err error
				password, err = promptPassword("private key password: ")
				if err != nil {
					return err
				}
			}
			return facade.Sign(context.Background(), facade.SignRequest{
				RingPath:    c.String("ring"),
				KeyPath:     c.String("key"),
				SignerIndex: c.Int("index"),
				Message:     []byte(c.String("message")),
				Password:    password,
				OutputPath:  c.String("out"),
			})
		},
	}
}

func verifyCommand() *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "check a ring signature against a message",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "sig", Required: true, Usage: "path to the signature file"},
			&cli.StringFlag{Name: "message", Required: true, Usage: "message to check"},
		},
		Action: func(c *cli.Context) error {
			ok, err := facade.Verify(context.Background(), facade.VerifyRequest{
				SignaturePath: c.String("sig"),
				Message:       []byte(c.String("message")),
			})
			if err != nil {
				return err
			}
			if ok {
				fmt.Println("valid")
				return nil
			}
			fmt.Println("invalid")
			return cli.Exit("", 1)
		},
	}
}

func genkeyCommand() *cli.Command {
	return &cli.Command{
		Name:  "genkey",
		Usage: "generate an RSA key pair for building a test ring (ambient tooling, not part of the signature scheme)",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "bits", Value: 2048, Usage: "RSA modulus size in bits"},
			&cli.StringFlag{Name: "out", Required: true, Usage: "output path for the private key"},
			&cli.StringFlag{Name: "password", Usage: "encrypt the private key with this password (PKCS#8, prompted if flag given with no value)"},
		},
		Action: func(c *cli.Context) error {
			key, err := rsa.GenerateKey(rand.Reader, c.Int("bits"))
			if err != nil {
				return fmt.Errorf("genkey: %w", err)
			}

			der, err := x509.MarshalPKCS8PrivateKey(key)
			if err != nil {
				return fmt.Errorf("genkey: %w", err)
			}

			keyPEM, err := encodePrivateKeyPEM(c, der)
			if err != nil {
				return fmt.Errorf("genkey: %w", err)
			}
			if err := os.WriteFile(c.String("out"), keyPEM, 0o600); err != nil {
				return fmt.Errorf("genkey: writing key: %w", err)
			}

			pubDER, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
			if err != nil {
				return fmt.Errorf("genkey: %w", err)
			}
			fmt.Print(string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER})))
			return nil
		},
	}
}

// encodePrivateKeyPEM wraps der as a plain "PRIVATE KEY" PEM block, or
// as an "ENCRYPTED PRIVATE KEY" PBES2 block if --password was given
// (prompting for the password if the flag was set with no value).
func encodePrivateKeyPEM(c *cli.Context, der []byte) ([]byte, error) {
	if !c.IsSet("password") {
		return pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: der}), nil
	}

	password := c.String("password")
	if password == "" {
		var err error
		password, err = promptPassword("new private key password: ")
		if err != nil {
			return nil, err
		}
	}

	encrypted, err := keyio.EncryptPKCS8(der, password)
	if err != nil {
		return nil, err
	}
	return pem.EncodeToMemory(&pem.Block{Type: "ENCRYPTED PRIVATE KEY", Bytes: encrypted}), nil
}

// promptPassword prompts on stderr and reads a password from the
// controlling terminal without echoing it back.
func promptPassword(prompt string) (string, error) {
	fmt.Fprint(os.Stderr, prompt)
	password, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	return string(password), nil
}
