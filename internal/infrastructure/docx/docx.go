// Package docx reads WordprocessingML paragraphs and writes copies with
// extra runs appended to chosen paragraphs. Only word/document.xml is
// rewritten; every other archive entry is copied through.
package docx

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const (
	documentPart = "word/document.xml"
	wordNS       = "http://schemas.openxmlformats.org/wordprocessingml/2006/main"
	compatNS     = "http://schemas.openxmlformats.org/markup-compatibility/2006"
)

var ErrNotDocx = errors.New("not a docx archive")

// Paragraph is one w:p element. End is the byte offset of its closing tag
// in document.xml, or -1 for a self-closing paragraph.
type Paragraph struct {
	Text string
	End  int
}

type Document struct {
	files      []*zip.File
	body       []byte
	paragraphs []Paragraph
	closer     io.Closer
}

// Open reads the archive at path. Close releases the file handle.
func Open(path string) (*Document, error) {
	rc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotDocx, err)
	}
	doc, err := load(rc.File)
	if err != nil {
		_ = rc.Close()
		return nil, err
	}
	doc.closer = rc
	return doc, nil
}

func load(files []*zip.File) (*Document, error) {
	for _, f := range files {
		if f.Name != documentPart {
			continue
		}
		r, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open %s: %w", documentPart, err)
		}
		body, err := io.ReadAll(r)
		_ = r.Close()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", documentPart, err)
		}
		paragraphs, err := scanParagraphs(body)
		if err != nil {
			return nil, err
		}
		return &Document{files: files, body: body, paragraphs: paragraphs}, nil
	}
	return nil, fmt.Errorf("%w: missing %s", ErrNotDocx, documentPart)
}

func (d *Document) Close() error {
	if d.closer == nil {
		return nil
	}
	return d.closer.Close()
}

func (d *Document) Paragraphs() []Paragraph {
	out := make([]Paragraph, len(d.paragraphs))
	copy(out, d.paragraphs)
	return out
}

// Text joins paragraph texts with newlines.
func (d *Document) Text() string {
	texts := make([]string, 0, len(d.paragraphs))
	for _, p := range d.paragraphs {
		texts = append(texts, p.Text)
	}
	return strings.Join(texts, "\n")
}

// Insertion appends Lines as one run at the end of paragraph Index. Each
// line is preceded by two breaks.
type Insertion struct {
	Index int
	Lines []string
}

// SaveWithInsertions writes a new archive at path. The receiver is not
// modified, so repeated saves always start from the original body.
func (d *Document) SaveWithInsertions(path string, insertions []Insertion) error {
	body, err := d.render(insertions)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	for _, f := range d.files {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     f.Name,
			Method:   f.Method,
			Modified: f.Modified,
		})
		if err != nil {
			return fmt.Errorf("create entry %s: %w", f.Name, err)
		}
		if f.Name == documentPart {
			if _, err := w.Write(body); err != nil {
				return fmt.Errorf("write %s: %w", f.Name, err)
			}
			continue
		}
		if err := copyEntry(w, f); err != nil {
			return err
		}
	}
	if err := zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	return out.Close()
}

func (d *Document) render(insertions []Insertion) ([]byte, error) {
	type splice struct {
		at   int
		text []byte
	}
	splices := make([]splice, 0, len(insertions))
	for _, ins := range insertions {
		if ins.Index < 0 || ins.Index >= len(d.paragraphs) {
			return nil, fmt.Errorf("paragraph index %d out of range", ins.Index)
		}
		end := d.paragraphs[ins.Index].End
		if end < 0 || len(ins.Lines) == 0 {
			continue
		}
		splices = append(splices, splice{at: end, text: markerRun(ins.Lines)})
	}
	sort.SliceStable(splices, func(i, j int) bool { return splices[i].at < splices[j].at })

	var buf bytes.Buffer
	last := 0
	for _, s := range splices {
		buf.Write(d.body[last:s.at])
		buf.Write(s.text)
		last = s.at
	}
	buf.Write(d.body[last:])
	return buf.Bytes(), nil
}

func markerRun(lines []string) []byte {
	var b bytes.Buffer
	b.WriteString(`<w:r>`)
	for _, line := range lines {
		b.WriteString(`<w:br/><w:br/><w:t xml:space="preserve">`)
		_ = xml.EscapeText(&b, []byte(line))
		b.WriteString(`</w:t>`)
	}
	b.WriteString(`</w:r>`)
	return b.Bytes()
}

func copyEntry(w io.Writer, f *zip.File) error {
	r, err := f.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", f.Name, err)
	}
	defer r.Close()
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copy entry %s: %w", f.Name, err)
	}
	return nil
}

// scanParagraphs walks document.xml and records each w:p with its text
// and the offset of its closing tag. Nested paragraphs (text boxes) are
// separate units; their text does not leak into the enclosing one.
// mc:Fallback repeats the mc:Choice content and is skipped.
func scanParagraphs(body []byte) ([]Paragraph, error) {
	type open struct {
		index      int
		afterStart int
		text       strings.Builder
	}

	dec := xml.NewDecoder(bytes.NewReader(body))
	var (
		out    []Paragraph
		stack  []*open
		inText bool
	)
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", documentPart, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Space == compatNS && t.Name.Local == "Fallback" {
				if err := dec.Skip(); err != nil {
					return nil, fmt.Errorf("parse %s: %w", documentPart, err)
				}
				continue
			}
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "p":
				out = append(out, Paragraph{End: -1})
				stack = append(stack, &open{index: len(out) - 1, afterStart: int(dec.InputOffset())})
			case "t":
				inText = true
			case "tab":
				if len(stack) > 0 {
					stack[len(stack)-1].text.WriteByte('\t')
				}
			case "br", "cr":
				if len(stack) > 0 {
					stack[len(stack)-1].text.WriteByte('\n')
				}
			}
		case xml.EndElement:
			if t.Name.Space != wordNS {
				continue
			}
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				if len(stack) == 0 {
					continue
				}
				top := stack[len(stack)-1]
				stack = stack[:len(stack)-1]
				offset := int(dec.InputOffset())
				out[top.index].Text = top.text.String()
				if offset != top.afterStart {
					out[top.index].End = bytes.LastIndex(body[:offset], []byte("</"))
				}
			}
		case xml.CharData:
			if inText && len(stack) > 0 {
				stack[len(stack)-1].text.Write(t)
			}
		}
	}
	return out, nil
}
