package prompts

import (
	"bytes"
	"embed"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

//go:embed templates/*.txt
var templateFS embed.FS

// MaxMessageRunes bounds the student message forwarded to the model.
const MaxMessageRunes = 4000

var (
	studentMessageRegex     = regexp.MustCompile(`(?i)</?\s*student-message\b[^>]*>`)
	systemInstructionsRegex = regexp.MustCompile(`(?i)</?\s*system-instructions\b[^>]*>`)
)

var languageNames = map[string]string{
	"en": "English",
	"fr": "French",
	"ar": "Arabic",
}

// CounselorData holds template data for the counselor system prompt.
type CounselorData struct {
	Persona       string
	StudentName   string
	Language      string
	MaxParagraphs string
}

var (
	loadOnce  sync.Once
	loadErr   error
	counselor *template.Template
)

func load() error {
	loadOnce.Do(func() {
		content, err := templateFS.ReadFile("templates/counselor.txt")
		if err != nil {
			loadErr = fmt.Errorf("read counselor prompt: %w", err)
			return
		}
		counselor, loadErr = template.New("counselor").Parse(string(content))
		if loadErr != nil {
			loadErr = fmt.Errorf("parse counselor prompt: %w", loadErr)
		}
	})
	return loadErr
}

// LanguageName returns the English name of a language code, or the code itself.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

// BuildCounselorPrompt renders the counselor system prompt.
func BuildCounselorPrompt(data CounselorData) (string, error) {
	if err := load(); err != nil {
		return "", err
	}
	if data.Persona == "" {
		data.Persona = "Maryam"
	}
	if data.MaxParagraphs == "" {
		data.MaxParagraphs = "2-3"
	}
	data.Language = LanguageName(data.Language)

	var buf bytes.Buffer
	if err := counselor.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// WrapStudentMessage sanitizes a student message and encloses it in the
// tags the system prompt refers to.
func WrapStudentMessage(message string) string {
	return "<student-message>\n" + SanitizeMessage(message) + "\n</student-message>"
}

// SanitizeMessage strips prompt delimiter tags and truncates overly long input.
func SanitizeMessage(message string) string {
	message = studentMessageRegex.ReplaceAllString(message, "")
	message = systemInstructionsRegex.ReplaceAllString(message, "")
	message = strings.TrimSpace(message)

	if message == "" {
		return "[No message provided]"
	}

	if utf8.RuneCountInString(message) > MaxMessageRunes {
		runes := []rune(message)
		message = string(runes[:MaxMessageRunes]) + "\n\n[Message truncated due to length]"
	}
	return message
}
