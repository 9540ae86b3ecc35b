package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/klauspost/readahead"

	"github.com/ardnew/aql/lang"
	"github.com/ardnew/aql/log"
	"github.com/ardnew/aql/pkg"
)

// Runtime holds the state shared by every command. The CLI builds one from
// the global flags and binds it into the kong context.
type Runtime struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	Logger log.Logger

	// Options are passed to every parse and evaluation.
	Options []lang.Option

	// Path is the query file search path.
	Path []string

	CacheDir   string
	ConfigFile string
}

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// source is one query text and the name used to report it.
type source struct {
	name string
	text string
}

// stdinSource is the special source indicator for reading from stdin.
const stdinSource = "-"

// fileKey uniquely identifies a file by its device and inode numbers.
// This handles deduplication across symlinks and relative paths.
type fileKey struct {
	dev uint64
	ino uint64
}

// makeFileKey returns false if the underlying Sys() data is not of type
// *syscall.Stat_t.
func makeFileKey(info os.FileInfo) (key fileKey, ok bool) {
	stat, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return key, false
	}

	return fileKey{dev: uint64(stat.Dev), ino: stat.Ino}, true
}

// collectSources gathers the inline queries followed by the query files.
// Files are resolved against the search path and read once each, however
// many times they are named. All occurrences of "-" read stdin once, after
// the regular files. Stdin is also read when nothing else was given.
func collectSources(
	ctx context.Context,
	rt *Runtime,
	inline []string,
	files []string,
) ([]source, error) {
	srcs := make([]source, 0, len(inline)+len(files))

	for i, text := range inline {
		srcs = append(srcs, source{name: "arg" + strconv.Itoa(i+1), text: text})
	}

	seen := make(map[fileKey]struct{})
	stdin := len(inline) == 0 && len(files) == 0

	for _, name := range files {
		if name == stdinSource {
			stdin = true

			continue
		}

		path, err := pkg.Resolve(name, rt.Path)
		if err != nil {
			return nil, ErrReadQuery.Wrap(err)
		}

		if abs, err := filepath.EvalSymlinks(path); err == nil {
			path = abs
		}

		if info, err := os.Stat(path); err == nil {
			if key, ok := makeFileKey(info); ok {
				if _, dup := seen[key]; dup {
					continue
				}

				seen[key] = struct{}{}
			}
		}

		text, err := readFile(path)
		if err != nil {
			return nil, ErrReadQuery.Wrap(err).With(slog.String("file", path))
		}

		rt.Logger.DebugContext(ctx, "query file loaded",
			slog.String("file", path),
			slog.Int("bytes", len(text)),
		)

		srcs = append(srcs, source{name: path, text: text})
	}

	if stdin && rt.Stdin != nil {
		text, err := readAll(rt.Stdin)
		if err != nil {
			return nil, ErrReadQuery.Wrap(err).With(slog.String("file", stdinSource))
		}

		srcs = append(srcs, source{name: "stdin", text: text})
	}

	if len(srcs) == 0 {
		return nil, ErrNoQuery
	}

	return srcs, nil
}

func readFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	return readAll(f)
}

// readAll reads r to EOF through an asynchronous read-ahead buffer.
func readAll(r io.Reader) (string, error) {
	ra := readahead.NewReader(r)
	defer ra.Close()

	data, err := io.ReadAll(ra)

	return string(data), err
}
