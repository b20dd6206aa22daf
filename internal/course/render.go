package course

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Format selects the output rendering of an adaptation.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
)

// ParseFormat accepts "markdown", "md" and "json".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("unsupported format %q (want markdown or json)", s)
	}
}

func (f Format) ext() string {
	if f == FormatJSON {
		return ".json"
	}
	return ".md"
}

// FileName is the output file name of an adapted course.
func FileName(title string, f Format) string {
	safe := strings.NewReplacer("/", "_", `\`, "_").Replace(strings.TrimSpace(title))
	if safe == "" {
		safe = "course"
	}
	return safe + "_adapted" + f.ext()
}

// Save renders the adaptation into dir and returns the written path.
func Save(dir string, a Adaptation, f Format) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(dir, FileName(a.CourseTitle, f))
	file, err := os.Create(path)
	if err != nil {
		return "", err
	}
	if err := Render(file, a, f); err != nil {
		file.Close()
		return "", err
	}
	return path, file.Close()
}

// Render writes the adaptation in the requested format.
func Render(w io.Writer, a Adaptation, f Format) error {
	if f == FormatJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		return enc.Encode(a)
	}
	_, err := io.WriteString(w, Markdown(a))
	return err
}

// Markdown renders the adaptation as a teacher facing document with the
// originals folded under <details> blocks.
func Markdown(a Adaptation) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s - Version Adaptée aux Dyslexiques\n\n", a.CourseTitle)
	fmt.Fprintf(&b, "*Version adaptée générée le %s*\n\n", a.GeneratedAt.Format("02/01/2006 à 15:04"))
	b.WriteString("---\n\n")

	b.WriteString("## 📚 Introduction\n\n")
	b.WriteString(a.Introduction.Text)
	b.WriteString("\n\n")

	b.WriteString("## 📖 Contenu du Cours\n\n")
	for i, s := range a.Sections {
		title := s.AdaptedTitle
		if title == "" {
			title = s.OriginalTitle
		}
		fmt.Fprintf(&b, "### %d. %s\n\n%s\n\n", i+1, title, s.AdaptedContent)
		writeDetails(&b, "Voir le contenu original", s.OriginalContentPreview)
	}

	if len(a.Exercises) > 0 {
		b.WriteString("## 🎯 Exercices\n\n")
		for i, ex := range a.Exercises {
			fmt.Fprintf(&b, "### Exercice %d\n\n%s\n\n", i+1, ex.Adapted)
			writeDetails(&b, "Voir l'exercice original", ex.Original)
		}
	}

	if len(a.Instructions) > 0 {
		b.WriteString("## 📝 Instructions et Consignes\n\n")
		for i, in := range a.Instructions {
			fmt.Fprintf(&b, "### Consigne %d\n\n%s\n\n", i+1, in.Adapted)
			writeDetails(&b, "Voir la consigne originale", in.Original)
		}
	}

	fmt.Fprintf(&b, "## 🎨 Guide de Présentation\n\n%s\n\n", a.Formatting.Guide)
	fmt.Fprintf(&b, "## 📊 Exemple d'Évaluation Adaptée\n\n%s\n\n", a.Assessment.Example)
	b.WriteString("---\n\n")
	b.WriteString("*Cette version adaptée a été générée automatiquement en utilisant la recherche sur la dyslexie. " +
		"Elle doit être révisée par un enseignant avant utilisation.*\n")
	return b.String()
}

func writeDetails(b *strings.Builder, summary, body string) {
	fmt.Fprintf(b, "<details>\n<summary>📄 %s</summary>\n\n%s\n\n</details>\n\n---\n\n", summary, body)
}
