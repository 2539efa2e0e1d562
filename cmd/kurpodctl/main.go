// Command kurpodctl is a minimal interactive shell over a kurpod blob: init
// a container, unlock it with either its standard or hidden password, and
// put/get/remove/rename files within whichever volume that password opens.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/srv1n/kurpod"
)

func main() {
	path := flag.String("path", "blob.kurpod", "Path to the blob file")
	password := flag.String("password", "", "Volume password")
	initFlag := flag.Bool("init", false, "Initialize a new blob before entering the shell")
	hiddenPassword := flag.String("hidden-password", "", "Hidden volume password (only used with -init)")
	flag.Parse()

	if *password == "" {
		*password = promptLine("Enter password: ")
	}
	if *password == "" {
		fmt.Println("Password is required.")
		os.Exit(1)
	}

	if *initFlag {
		hp := *hiddenPassword
		if hp == "" {
			hp = promptLine("Enter hidden volume password: ")
		}
		if err := kurpod.InitBlob(*path, *password, hp); err != nil {
			fmt.Printf("Error initializing blob: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Blob initialized.")
	}

	session, err := kurpod.Unlock(*path, *password)
	if err != nil {
		fmt.Printf("Error unlocking blob: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("kurpod shell (%s volume)\n", session.Kind())
	fmt.Println("Commands: put <path> <value>, get <path>, rm <path>, mv <old> <new>, rmdir <folder>, ls, compact, exit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}

		switch strings.ToLower(parts[0]) {
		case "put":
			if len(parts) < 3 {
				fmt.Println("Usage: put <path> <value>")
				continue
			}
			innerPath := parts[1]
			value := strings.Join(parts[2:], " ")
			if err := session.Put(innerPath, []byte(value), "text/plain"); err != nil {
				fmt.Printf("Error: %v\n", err)
			} else {
				fmt.Println("OK")
			}
		case "get":
			if len(parts) != 2 {
				fmt.Println("Usage: get <path>")
				continue
			}
			val, err := session.Get(parts[1])
			if err != nil {
				fmt.Printf("Error: %v\n", err)
			} else {
				fmt.Printf("%s\n", val)
			}
		case "rm":
			if len(parts) != 2 {
				fmt.Println("Usage: rm <path>")
				continue
			}
			ok, err := session.Remove(parts[1])
			if err != nil {
				fmt.Printf("Error: %v\n", err)
			} else if !ok {
				fmt.Println("Not found")
			} else {
				fmt.Println("OK")
			}
		case "mv":
			if len(parts) != 3 {
				fmt.Println("Usage: mv <old> <new>")
				continue
			}
			ok, err := session.Rename(parts[1], parts[2])
			if err != nil {
				fmt.Printf("Error: %v\n", err)
			} else if !ok {
				fmt.Println("Not found")
			} else {
				fmt.Println("OK")
			}
		case "rmdir":
			if len(parts) != 2 {
				fmt.Println("Usage: rmdir <folder>")
				continue
			}
			ok, err := session.RemoveFolder(parts[1])
			if err != nil {
				fmt.Printf("Error: %v\n", err)
			} else if !ok {
				fmt.Println("Not found")
			} else {
				fmt.Println("OK")
			}
		case "ls":
			for _, p := range session.List() {
				fmt.Println(p)
			}
		case "compact":
			hp := promptLine("Enter hidden volume password to compact: ")
			if err := kurpod.CompactBlob(*path, *password, hp); err != nil {
				fmt.Printf("Error: %v\n", err)
			} else {
				fmt.Println("Compaction complete")
			}
		case "exit", "quit":
			return
		default:
			fmt.Println("Unknown command")
		}
	}
}

func promptLine(prompt string) string {
	fmt.Print(prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && err != io.EOF {
		return ""
	}
	return strings.TrimSpace(line)
}
