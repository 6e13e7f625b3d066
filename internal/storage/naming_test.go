package storage

import (
	"regexp"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imagevault/imagevault-server/internal/errors"
)

func TestSanitizeName(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"photo.png", "photo.png", false},
		{"  photo.png ", "photo.png", false},
		{"nested/dir/photo.png", "photo.png", false},
		{`C:\Users\me\photo.png`, "photo.png", false},
		{"http://localhost:5000/images/abc.jpg", "abc.jpg", false},
		{"https://cdn.example.com/images/abc.jpg?v=2", "abc.jpg", false},
		{"../../etc/passwd", "passwd", false},
		{"", "", true},
		{".", "", true},
		{"..", "", true},
		{"/", "", true},
		{"bad\x00name", "", true},
		{".upload-123456", "", true},
		{".hidden", "", true},
		{"dir/.env", "", true},
		{"http://localhost:5000/images/.upload-1", "", true},
		{"photo..png", "photo..png", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := SanitizeName(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrBadRequest))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewNamer(t *testing.T) {
	n, err := NewNamer("")
	require.NoError(t, err)
	assert.Equal(t, NamingNanoID, n.Strategy())

	_, err = NewNamer("sequential")
	assert.Error(t, err)
}

func TestNamer_Precedence(t *testing.T) {
	n, err := NewNamer(NamingNanoID)
	require.NoError(t, err)

	t.Run("query name wins", func(t *testing.T) {
		got, err := n.Name("sunset", "img-42", "IMG_0001.JPG")
		require.NoError(t, err)
		assert.Equal(t, "sunset.jpg", got)
	})

	t.Run("query name with matching extension", func(t *testing.T) {
		got, err := n.Name("sunset.JPG", "", "IMG_0001.JPG")
		require.NoError(t, err)
		assert.Equal(t, "sunset.jpg", got)
	})

	t.Run("client id in field name", func(t *testing.T) {
		got, err := n.Name("", "img-42", "IMG_0001.PNG")
		require.NoError(t, err)
		assert.Equal(t, "img-42.png", got)
	})

	t.Run("generic field falls through to strategy", func(t *testing.T) {
		for _, field := range []string{"file", "IMAGE", "upload", "", "photo", "index", "img-", "img-a.b", "IMG-42"} {
			got, err := n.Name("", field, "IMG_0001.PNG")
			require.NoError(t, err)
			assert.Regexp(t, regexp.MustCompile(`^[0-9a-z]{20}\.png$`), got)
		}
	})

	t.Run("no extension", func(t *testing.T) {
		got, err := n.Name("raw", "", "blob")
		require.NoError(t, err)
		assert.Equal(t, "raw", got)
	})

	t.Run("traversal in query name", func(t *testing.T) {
		got, err := n.Name("../../escape", "", "a.gif")
		require.NoError(t, err)
		assert.Equal(t, "escape.gif", got)
	})

	t.Run("invalid query name", func(t *testing.T) {
		_, err := n.Name("..", "", "a.gif")
		assert.True(t, errors.Is(err, errors.ErrBadRequest))
	})
}

func TestNamer_Strategies(t *testing.T) {
	t.Run("uuid", func(t *testing.T) {
		n, err := NewNamer(NamingUUID)
		require.NoError(t, err)

		got, err := n.Name("", "file", "x.WebP")
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^[0-9a-f]{8}-[0-9a-f]{4}-7[0-9a-f]{3}-[0-9a-f]{4}-[0-9a-f]{12}\.webp$`), got)
	})

	t.Run("original", func(t *testing.T) {
		n, err := NewNamer(NamingOriginal)
		require.NoError(t, err)

		got, err := n.Name("", "file", "holiday/Beach Day.JPEG")
		require.NoError(t, err)
		assert.Equal(t, "Beach Day.jpeg", got)
	})

	t.Run("original without a usable name", func(t *testing.T) {
		n, err := NewNamer(NamingOriginal)
		require.NoError(t, err)

		got, err := n.Name("", "file", ".png")
		require.NoError(t, err)
		assert.Regexp(t, regexp.MustCompile(`^[0-9a-z]{20}\.png$`), got)
	})
}
