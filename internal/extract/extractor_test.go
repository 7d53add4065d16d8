package extract

import (
	"archive/zip"
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

func TestPages_plain(t *testing.T) {
	e := NewExtractor()
	pages, err := e.Pages([]byte("Hello world\nLine 2"), ".txt")
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	if pages[0].Text != "Hello world\nLine 2" || pages[0].Number != 1 {
		t.Errorf("got %+v", pages[0])
	}
}

func TestPages_plainInvalidUTF8(t *testing.T) {
	e := NewExtractor()
	pages, err := e.Pages([]byte("hello\x80world"), ".rst")
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if pages[0].Text != "hello�world" {
		t.Errorf("got %q", pages[0].Text)
	}
}

func TestPages_excelSheetPerPage(t *testing.T) {
	f := excelize.NewFile()
	defer f.Close()
	f.SetCellValue("Sheet1", "A1", "Title")
	f.SetCellValue("Sheet1", "A2", "Value 1")
	f.SetCellValue("Sheet1", "B2", "Value 2")
	if _, err := f.NewSheet("Sheet2"); err != nil {
		t.Fatalf("NewSheet: %v", err)
	}
	f.SetCellValue("Sheet2", "A1", "Second sheet")
	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		t.Fatalf("WriteTo: %v", err)
	}

	e := NewExtractor()
	pages, err := e.Pages(buf.Bytes(), ".xlsx")
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if pages[0].Text != "Title\nValue 1\tValue 2" || pages[0].Number != 1 {
		t.Errorf("page 1: %+v", pages[0])
	}
	if pages[1].Text != "Second sheet" || pages[1].Number != 2 {
		t.Errorf("page 2: %+v", pages[1])
	}
}

func TestPages_pptxSlidePerPage(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	// Slide entries written out of order to exercise numeric sorting.
	for name, body := range map[string]string{
		"ppt/slides/slide2.xml": `<p:sld><a:t>Second slide</a:t></p:sld>`,
		"ppt/slides/slide1.xml": `<p:sld><a:t xml:space="preserve">First</a:t><a:t>slide</a:t></p:sld>`,
	} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("Create %s: %v", name, err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatalf("Write %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close zip: %v", err)
	}

	e := NewExtractor()
	pages, err := e.Pages(buf.Bytes(), ".pptx")
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("got %d pages, want 2", len(pages))
	}
	if pages[0].Text != "First slide" || pages[0].Number != 1 {
		t.Errorf("slide 1: %+v", pages[0])
	}
	if pages[1].Text != "Second slide" || pages[1].Number != 2 {
		t.Errorf("slide 2: %+v", pages[1])
	}
}

func TestPages_docxSinglePage(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := w.Write([]byte(`<w:document><w:p w:rsidR="00A"><w:r><w:t>Hello</w:t></w:r><w:r><w:t xml:space="preserve">docx</w:t></w:r></w:p></w:document>`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close zip: %v", err)
	}

	e := NewExtractor()
	pages, err := e.Pages(buf.Bytes(), ".docx")
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 1 {
		t.Fatalf("got %d pages, want 1", len(pages))
	}
	if pages[0].Text != "Hello docx" {
		t.Errorf("got %q", pages[0].Text)
	}
}

func TestPages_odsSinglePage(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	w, err := zw.Create("content.xml")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := w.Write([]byte(`<office:document-content><text:p>Cell one</text:p><text:p>Cell two</text:p></office:document-content>`)); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("Close zip: %v", err)
	}

	e := NewExtractor()
	pages, err := e.Pages(buf.Bytes(), ".ods")
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if pages[0].Text != "Cell one Cell two" {
		t.Errorf("got %q", pages[0].Text)
	}
}

func TestPages_notAZip(t *testing.T) {
	e := NewExtractor()
	for _, ext := range []string{".docx", ".pptx", ".odp", ".ods", ".xlsx"} {
		if _, err := e.Pages([]byte("not a zip"), ext); err == nil {
			t.Errorf("%s: expected error for non-zip content", ext)
		}
	}
}

func TestExtractFile_plain(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.txt")
	if err := os.WriteFile(path, []byte("File content"), 0600); err != nil {
		t.Fatal(err)
	}

	e := NewExtractor()
	pages, err := e.ExtractFile(path)
	if err != nil {
		t.Fatalf("ExtractFile: %v", err)
	}
	if len(pages) != 1 || pages[0].Text != "File content" {
		t.Errorf("got %+v", pages)
	}
}

func TestExtractFile_nonexistent(t *testing.T) {
	e := NewExtractor()
	if _, err := e.ExtractFile("/nonexistent/path/file.txt"); err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestPages_unknownExtension(t *testing.T) {
	e := NewExtractor()
	pages, err := e.Pages([]byte("raw content"), ".xyz")
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if pages[0].Text != "raw content" {
		t.Errorf("got %q", pages[0].Text)
	}
}
