package services

import (
	"errors"
	"testing"
)

func TestValidateUpload(t *testing.T) {
	cases := []struct {
		name    string
		up      FileUpload
		wantErr bool
	}{
		{"pdf", FileUpload{Name: "notes.pdf", ContentType: "application/pdf", Size: 1024}, false},
		{"docx", FileUpload{Name: "essay.docx", ContentType: "application/vnd.openxmlformats-officedocument.wordprocessingml.document", Size: 2048}, false},
		{"jpeg", FileUpload{Name: "photo.JPG", ContentType: "image/jpeg", Size: 4096}, false},
		{"zip", FileUpload{Name: "bundle.zip", ContentType: "application/zip", Size: 1 << 20}, false},
		{"txt_no_content_type", FileUpload{Name: "readme.txt", Size: 10}, false},
		{"executable", FileUpload{Name: "malware.exe", ContentType: "application/octet-stream", Size: 1024}, true},
		{"shell_script", FileUpload{Name: "run.sh", ContentType: "text/x-shellscript", Size: 64}, true},
		{"no_extension", FileUpload{Name: "mystery", ContentType: "application/pdf", Size: 64}, true},
		{"video_mime", FileUpload{Name: "clip.zip", ContentType: "video/mp4", Size: 1024}, true},
		{"empty", FileUpload{Name: "empty.pdf", ContentType: "application/pdf", Size: 0}, true},
		{"at_size_cap", FileUpload{Name: "big.zip", ContentType: "application/zip", Size: MaxUploadBytes}, false},
		{"over_size_cap", FileUpload{Name: "huge.zip", ContentType: "application/zip", Size: MaxUploadBytes + 1}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateUpload(tc.up)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ValidateUpload(%s): err=%v wantErr=%v", tc.up.Name, err, tc.wantErr)
			}
			if err != nil && !errors.Is(err, ErrValidation) {
				t.Fatalf("want ErrValidation, got %v", err)
			}
		})
	}
}
