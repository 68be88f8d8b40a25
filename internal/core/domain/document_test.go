package domain

import "testing"

func TestKindFromName(t *testing.T) {
	tests := []struct {
		name string
		want DocumentKind
	}{
		{"atlas.pdf", DocumentKindPDF},
		{"ATLAS.PDF", DocumentKindPDF},
		{"map.jpg", DocumentKindImage},
		{"map.jpeg", DocumentKindImage},
		{"map.PNG", DocumentKindImage},
		{"lecture.pptx", DocumentKindPPTX},
		{"lecture.ppt", DocumentKindPPTX},
		{"notes.docx", DocumentKindDOCX},
		{"notes.txt", DocumentKindDOCX},
		{"no-extension", DocumentKindDOCX},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := KindFromName(tt.name); got != tt.want {
				t.Errorf("KindFromName(%q) = %s, want %s", tt.name, got, tt.want)
			}
		})
	}
}

func TestDocumentKindIsValid(t *testing.T) {
	for _, k := range []DocumentKind{DocumentKindPDF, DocumentKindDOCX, DocumentKindPPTX, DocumentKindImage} {
		if !k.IsValid() {
			t.Errorf("expected %s to be valid", k)
		}
	}
	if DocumentKind("xls").IsValid() {
		t.Error("expected xls to be invalid")
	}
}

func TestFormatFileSize(t *testing.T) {
	if got := FormatFileSize(0); got != "0.0 MB" {
		t.Errorf("expected 0.0 MB, got %s", got)
	}
	if got := FormatFileSize(3 * 1024 * 1024 / 2); got != "1.5 MB" {
		t.Errorf("expected 1.5 MB, got %s", got)
	}
}

func TestChunkID(t *testing.T) {
	if got := ChunkID("abc", 1); got != "abc-1" {
		t.Errorf("expected abc-1, got %s", got)
	}
}

func TestUploadedFileIsProcessing(t *testing.T) {
	f := &UploadedFile{Status: FileStatusProcessing}
	if !f.IsProcessing() {
		t.Error("expected processing file")
	}
	f.Status = FileStatusCompleted
	if f.IsProcessing() {
		t.Error("completed file should not be processing")
	}
}

func TestMIMETypeFor(t *testing.T) {
	tests := []struct {
		name string
		kind DocumentKind
		want string
	}{
		{"notes.txt", DocumentKindDOCX, "text/plain"},
		{"README.MD", DocumentKindDOCX, "text/markdown"},
		{"map.png", DocumentKindImage, "image/png"},
		{"map.JPG", DocumentKindImage, "image/jpeg"},
		{"deck.pptx", DocumentKindPPTX, DocumentKindPPTX.MimeType()},
		{"atlas.pdf", DocumentKindPDF, "application/pdf"},
	}
	for _, tt := range tests {
		if got := MIMETypeFor(tt.name, tt.kind); got != tt.want {
			t.Errorf("MIMETypeFor(%q) = %s, want %s", tt.name, got, tt.want)
		}
	}
}
