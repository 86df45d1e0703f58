package utils

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/chroma/v2/quick"
)

var isCodeBlock = false

// RenderAndPrintMarkdown handles the rendering of a single markdown line.
func RenderAndPrintMarkdown(line string, language string, theme string) error {

	if strings.HasPrefix(line, "```") {
		isCodeBlock = !isCodeBlock
	}

	err := quick.Highlight(os.Stdout, line, language, "terminal256", theme)
	if err != nil {
		return err
	}

	return nil
}

// RenderAndPrintMarkdownWithContext renders a full markdown response with
// cancellation support, so Ctrl-C interrupts long answers mid-print.
func RenderAndPrintMarkdownWithContext(ctx context.Context, content string, language string, theme string) error {
	lines := strings.Split(content, "\n")

	for i, line := range lines {
		select {
		case <-ctx.Done():
			fmt.Printf("\n\n🔄 Output interrupted...\n")
			return ctx.Err()
		default:
		}

		if strings.HasPrefix(line, "```") {
			isCodeBlock = !isCodeBlock
		}

		// Use a buffer to capture the highlight output
		var buf bytes.Buffer
		if err := quick.Highlight(&buf, line+"\n", language, "terminal256", theme); err != nil {
			return err
		}
		fmt.Print(buf.String())

		// Check for cancellation more frequently for responsive interruption
		if i%5 == 0 {
			select {
			case <-ctx.Done():
				fmt.Printf("\n\n🔄 Output interrupted...\n")
				return ctx.Err()
			default:
			}
		}
	}

	return nil
}
