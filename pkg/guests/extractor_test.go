package guests

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const virshList = ` Id    Name                           State
----------------------------------------------------
 1     guest01.example.com            running
 2     web.example.com                idle
 3     db.example.com                 paused
 4     sub.example.com                no state
 5     mail.example.org               running

`

func quiet(opts ...Option) *Extractor {
	return New(append([]Option{WithLogger(slog.New(slog.DiscardHandler))}, opts...)...)
}

func writeFile(t *testing.T, content string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "vm_guests.txt")
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk on fire") }
func (failingReader) Close() error             { return nil }

func TestReport_VirshListing(t *testing.T) {
	for _, mode := range []StripMode{StripExact, StripLegacy} {
		t.Run(mode.String(), func(t *testing.T) {
			p := writeFile(t, virshList)
			got := quiet(WithStripMode(mode)).Report(LocalOpener(p))
			assert.Equal(t, "guest01.example.com web.example.com sub.example.com ", got)
		})
	}
}

func TestReport_NoQualifyingLines(t *testing.T) {
	p := writeFile(t, " Id    Name    State\n---------\n 1 foo.org running\n")
	assert.Equal(t, "None", quiet().Report(LocalOpener(p)))
}

func TestReport_EmptyFile(t *testing.T) {
	p := writeFile(t, "")
	assert.Equal(t, NoneSentinel, quiet().Report(LocalOpener(p)))
}

func TestReport_MissingFile(t *testing.T) {
	p := filepath.Join(t.TempDir(), "absent.txt")
	assert.Equal(t, "ERROR: No vm guest file on host!", quiet().Report(LocalOpener(p)))
}

func TestReport_DirectoryIsUnavailable(t *testing.T) {
	assert.Equal(t, NoGuestFileMessage, quiet().Report(LocalOpener(t.TempDir())))
}

func TestReport_ReadErrorPrintsDiagnostic(t *testing.T) {
	open := func() (io.ReadCloser, error) { return failingReader{}, nil }
	assert.Equal(t, NoGuestFileMessage, quiet().Report(open))
}

func TestReport_Idempotent(t *testing.T) {
	p := writeFile(t, virshList)
	e := quiet()
	first := e.Report(LocalOpener(p))
	second := e.Report(LocalOpener(p))
	assert.Equal(t, first, second)
}

func TestExtract_KeepsInputOrderAndDuplicates(t *testing.T) {
	in := " 3 c.example.com running\n 1 a.example.com running\n 2 b.example.com running\n 4 a.example.com idle"
	names, err := quiet().Extract(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"c.example.com", "a.example.com", "b.example.com", "a.example.com"}, names)
}

func TestExtract_ReadError(t *testing.T) {
	_, err := quiet().Extract(failingReader{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrReadGuestFile))
	assert.False(t, errors.Is(err, ErrNoGuestFile))
}

func TestExtractFile_MissingWrapsSentinel(t *testing.T) {
	_, err := quiet().ExtractFile(filepath.Join(t.TempDir(), "nope"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNoGuestFile))
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestExtract_CustomSuffixes(t *testing.T) {
	in := " 1 a.example.com running\n 2 b.example.net running\n 3 c.example.org running\n"
	names, err := quiet(WithSuffixes(".net", " ", ".org")).Extract(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []string{"b.example.net", "c.example.org"}, names)
}

func TestWithSuffixes_BlankKeepsDefault(t *testing.T) {
	e := quiet(WithSuffixes("", "  "))
	assert.Equal(t, DefaultSuffixes, e.suffixes)
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "None", Format(nil))
	assert.Equal(t, "None", Format([]string{}))
	assert.Equal(t, "a.com ", Format([]string{"a.com"}))
	assert.Equal(t, "a.com b.com ", Format([]string{"a.com", "b.com"}))
}
