package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"syscall"

	"github.com/stemsi/exstem-quiz/internal/credential"
	"github.com/stemsi/exstem-quiz/internal/questionbank"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/term"
)

func main() {
	var (
		hash bool
		cost int
	)
	flag.BoolVar(&hash, "hash", false, "print a bcrypt EXAM_PASSWORD_HASH instead of EXAM_PASSWORD_B64")
	flag.IntVar(&cost, "cost", bcrypt.DefaultCost, "bcrypt cost used with -hash")
	flag.Parse()

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(2)
	}

	switch args[0] {
	case "bank":
		if len(args) < 2 {
			fatalf("bank requires a file argument")
		}
		encodeBank(args[1])
	case "password":
		encodePassword(hash, cost)
	default:
		printUsage()
		os.Exit(2)
	}
}

// encodeBank validates a JSON or YAML bank and prints it as EXAM_DATA_B64.
func encodeBank(path string) {
	data, err := os.ReadFile(path)
	if err != nil {
		fatalf("read %s: %v", path, err)
	}

	encoded, n, err := encodeBankData(data)
	if err != nil {
		fatalf("%v", err)
	}

	fmt.Fprintf(os.Stderr, "%d questions OK\n", n)
	fmt.Printf("EXAM_DATA_B64=%s\n", encoded)
}

// encodeBankData parses data, encodes it and loads the result back through
// the provider the server uses. The loaded bank must hold every parsed
// question.
func encodeBankData(data []byte) (string, int, error) {
	bank, err := questionbank.Parse(data)
	if err != nil {
		return "", 0, fmt.Errorf("invalid question bank:\n%w", err)
	}

	encoded := questionbank.Encode(data)
	loaded, err := questionbank.EncodedProvider{Encoded: encoded}.Load(context.Background())
	if err != nil {
		return "", 0, fmt.Errorf("encoded bank does not load: %w", err)
	}
	if loaded.Len() != bank.Len() {
		return "", 0, fmt.Errorf("encoded bank loads %d questions, file has %d", loaded.Len(), bank.Len())
	}
	return encoded, bank.Len(), nil
}

// encodePassword prompts twice without echo and prints the secret env var.
func encodePassword(hash bool, cost int) {
	fmt.Fprint(os.Stderr, "Enter exam password: ")
	first, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fatalf("read password: %v", err)
	}

	fmt.Fprint(os.Stderr, "Repeat exam password: ")
	second, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Fprintln(os.Stderr)
	if err != nil {
		fatalf("read password: %v", err)
	}

	password := string(first)
	if password == "" {
		fatalf("password must not be empty")
	}
	if password != string(second) {
		fatalf("passwords do not match")
	}

	if !hash {
		fmt.Printf("EXAM_PASSWORD_B64=%s\n", credential.EncodePassword(password))
		return
	}

	hashed, err := credential.HashPassword(password, cost)
	if err != nil {
		fatalf("hash password: %v", err)
	}
	fmt.Printf("EXAM_PASSWORD_HASH=%s\n", hashed)
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}

func printUsage() {
	fmt.Println("Usage: exam-secrets [flags] <command>")
	fmt.Println("Commands: bank <file.json|file.yaml>, password")
	fmt.Println("Flags:")
	flag.PrintDefaults()
}
