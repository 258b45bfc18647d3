// Package document is the read-only view of a LaTeX document that drives an
// extraction: its content, encoding, comments, build log and the facts
// derived from them.
package document

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/coregx/coregex"

	"github.com/termfx/errers/internal/dsl"
	"github.com/termfx/errers/internal/engine"
)

// MemoryFile names documents read from memory in rule locations.
const MemoryFile = "<string>"

const scope = "Document"

var (
	logClass   = coregex.MustCompile(`Document Class: ([a-zA-Z0-9_-]+)`)
	logPackage = coregex.MustCompile(`Package: ([a-zA-Z0-9_-]+)`)
)

// Document holds the content of a LaTeX file or string.
type Document struct {
	eng      *engine.Engine
	path     string
	decoder  *decoder
	patterns *patterns
	sanitize *engine.Rule

	// Content is the decoded document text with LF line endings.
	Content string
	// Comments keeps the text of commented lines only, without the leading %.
	Comments string
	// Log is the LaTeX build log; HasLog is false when it is missing.
	Log    string
	HasLog bool
}

type patterns struct {
	encoding *engine.Pattern
	class    *engine.Pattern
	packages *engine.Pattern
	style    *engine.Pattern
	comments *engine.RuleList
	rules    *engine.Pattern
}

func newPatterns(eng *engine.Engine) (p *patterns, err error) {
	defer engine.Recover(&err)

	at := engine.WithScope(scope)
	return &patterns{
		encoding: eng.MustPattern(dsl.NotCommented+`\\usepackage%s{inputenc}`, at),
		class:    eng.MustPattern(dsl.NotCommented+`\\documentclass%s?%C`, at),
		packages: eng.MustPattern(dsl.NotCommented+`\\usepackage%s?%C`, at),
		style:    eng.MustPattern(dsl.NotCommented+`\\bibliographystyle%C`, at),
		comments: engine.NewRuleList(
			eng.Rule(`^[^%\n].*`, ``, at),
			eng.Rule(`^%(.*)`, `\1`, at),
		),
		rules: eng.MustPattern(ruleSpec, at),
	}, nil
}

// Open reads the document at path. The encoding declared with inputenc is
// used to decode it and every file it inserts. The sibling .log file is
// loaded when present.
func Open(eng *engine.Engine, path string) (*Document, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document: %w", err)
	}

	d, err := newDocument(eng)
	if err != nil {
		return nil, err
	}
	d.path = path

	name := DefaultEncoding
	m, err := d.patterns.encoding.Search(lenientUTF8(raw))
	if err != nil {
		return nil, err
	}
	if m != nil {
		name = m.Group("s1")
	}
	if d.decoder, err = newDecoder(name); err != nil {
		return nil, &EncodingError{File: filepath.Base(path), Encoding: name, Err: err}
	}
	eng.Logs().Log.Info("Encoding: " + d.decoder.name)

	if d.Content, err = d.ReadFile("", "", nil); err != nil {
		return nil, err
	}
	if err := d.finish(); err != nil {
		return nil, err
	}

	logPath := strings.TrimSuffix(path, filepath.Ext(path)) + ".log"
	if b, err := os.ReadFile(logPath); err == nil {
		d.Log, d.HasLog = lenientUTF8(b), true
		eng.Logs().Log.Info("LaTeX log: " + filepath.Base(logPath))
	} else {
		warnNoLog(eng, "LaTeX log file missing")
	}
	return d, nil
}

// FromString returns a document whose content is text. File insertion is
// unavailable and there is no log.
func FromString(eng *engine.Engine, text string) (*Document, error) {
	d, err := newDocument(eng)
	if err != nil {
		return nil, err
	}
	d.decoder = &decoder{name: DefaultEncoding, decode: decodeUTF8}
	d.Content = newlines.Replace(text)
	if err := d.finish(); err != nil {
		return nil, err
	}
	warnNoLog(eng, "No LaTeX log file for document read from memory")
	return d, nil
}

func newDocument(eng *engine.Engine) (*Document, error) {
	p, err := newPatterns(eng)
	if err != nil {
		return nil, err
	}
	sanitize, err := eng.Plain().NewRule(`[-.]`, engine.Literal(`_`), engine.WithScope(scope))
	if err != nil {
		return nil, err
	}
	return &Document{eng: eng, patterns: p, sanitize: sanitize}, nil
}

func (d *Document) finish() error {
	var err error
	d.Comments, err = d.patterns.comments.Sub(d.Content, engine.Args{})
	return err
}

func warnNoLog(eng *engine.Engine, reason string) {
	eng.Logs().Log.Warn(reason + ": rules applied only for commands from packages and " +
		"document classes mentioned explicitly in LaTeX document. (When LaTeX log file " +
		"is available, rules are also applied for packages and document classes that " +
		"are loaded indirectly by other packages and classes.)")
}

// Path returns the document path, or "" for documents read from memory.
func (d *Document) Path() string { return d.path }

// Encoding returns the name of the encoding used to decode the document.
func (d *Document) Encoding() string { return d.decoder.name }

// FileName is the base name used in rule locations.
func (d *Document) FileName() string {
	if d.path == "" {
		return MemoryFile
	}
	return filepath.Base(d.path)
}

// Stem is the base name without extension, or "" for in-memory documents.
func (d *Document) Stem() string {
	if d.path == "" {
		return ""
	}
	base := filepath.Base(d.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// DocumentClasses returns the loaded classes. The log lists classes loaded
// by other classes too; without it only \documentclass is considered.
func (d *Document) DocumentClasses() ([]string, error) {
	if d.HasLog {
		return d.fromLog(logClass)
	}
	m, err := d.patterns.class.Search(d.Content)
	if err != nil || m == nil {
		return nil, err
	}
	name, err := d.Sanitize(strings.TrimSpace(m.Group("c1")))
	if err != nil {
		return nil, err
	}
	return []string{name}, nil
}

// Packages returns the names of the packages used by the document.
func (d *Document) Packages() ([]string, error) {
	if d.HasLog {
		return d.fromLog(logPackage)
	}
	var names []string
	err := d.patterns.packages.Iterate(d.Content, func(m *engine.Match) error {
		for _, name := range strings.Split(m.Group("c1"), ",") {
			name = strings.TrimSpace(name)
			if name == "" {
				continue
			}
			clean, err := d.Sanitize(name)
			if err != nil {
				return err
			}
			names = append(names, clean)
		}
		return nil
	})
	return names, err
}

// BibliographyStyle returns the style named by \bibliographystyle.
func (d *Document) BibliographyStyle() (string, bool, error) {
	m, err := d.patterns.style.Search(d.Content)
	if err != nil || m == nil {
		return "", false, err
	}
	name, err := d.Sanitize(strings.TrimSpace(m.Group("c1")))
	return name, err == nil, err
}

func (d *Document) fromLog(re *coregex.Regex) ([]string, error) {
	var names []string
	for _, sm := range re.FindAllStringSubmatch(d.Log, -1) {
		name, err := d.Sanitize(sm[1])
		if err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, nil
}

// Sanitize turns a file name into a provider key: hyphens and periods
// become underscores.
func (d *Document) Sanitize(name string) (string, error) {
	return d.sanitize.Sub(name, engine.Args{})
}

// ReadFile returns the content of a file inserted into the document. rel is
// relative to the main document directory and gets defaultExt when it has
// no extension; "" names the main document. Missing files are logged and
// read as empty text. The location rules, when given, are applied with the
// inserted file name.
func (d *Document) ReadFile(rel, defaultExt string, location *engine.RuleList) (string, error) {
	log := d.eng.Logs().Log
	if d.path == "" {
		log.Error(fmt.Sprintf("Insertion of file %q failed because main document read from memory rather than file.", rel))
		return "", nil
	}

	dir := filepath.Dir(d.path)
	path := d.path
	if rel != "" {
		path = filepath.Join(dir, rel)
	}
	if filepath.Ext(path) == "" {
		path += defaultExt
	}
	shown, err := filepath.Rel(dir, path)
	if err != nil || strings.HasPrefix(shown, "..") {
		shown = path
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Error("Missing file: " + shown)
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read %s: %w", shown, err)
	}
	content, err := d.decoder.decode(raw)
	if err != nil {
		return "", encodingError(shown, d.decoder, err)
	}
	log.Info("Loaded file: " + shown)

	if location != nil && location.Len() > 0 {
		return location.Sub(content, engine.Args{Vars: engine.Vars{"file_name": filepath.Base(path)}})
	}
	return content, nil
}
