package utils

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/comunikime/jarvis/constants/lipgloss"
)

// InputPrompt prompts the user to enter their request for the assistant
func InputPrompt(reader *bufio.Reader) (string, error) {

	fmt.Print(lipgloss.BlueSky.Render("> "))

	userInput, err := reader.ReadString('\n')
	if userInput == "" {
		return "", nil
	}

	if err != nil {
		if err == io.EOF {
			return "", nil
		}
		return "", fmt.Errorf(lipgloss.Red.Render("🚫 Error reading input: "))
	}

	return strings.TrimSpace(userInput), nil
}

// InputPromptWithContext prompts the user with context cancellation support
func InputPromptWithContext(ctx context.Context, reader *bufio.Reader) (string, error) {
	inputChan := make(chan string, 1)
	errChan := make(chan error, 1)

	go func() {
		fmt.Print(lipgloss.BlueSky.Render("> "))

		userInput, err := reader.ReadString('\n')

		if err != nil {
			if err == io.EOF {
				errChan <- nil
			} else {
				errChan <- fmt.Errorf(lipgloss.Red.Render("🚫 Error reading input: "))
			}
			return
		}

		inputChan <- strings.TrimSpace(userInput)
	}()

	// Wait for either input or context cancellation
	select {
	case <-ctx.Done():
		fmt.Println() // Print newline for clean exit
		return "", ctx.Err()
	case err := <-errChan:
		return "", err
	case input := <-inputChan:
		return input, nil
	}
}
