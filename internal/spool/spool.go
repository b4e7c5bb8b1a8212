// Package spool buffers publishes made while no daemon is running. It is the
// pending slot of the delivery contract at process scope: a publish either
// reaches the daemon's hook over the socket or lands here, and the daemon
// drains the spool once when it initializes.
package spool

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/traitdex/traitdex/internal/assets"
	"github.com/traitdex/traitdex/internal/logger"
)

var log = logger.ForComponent("spool")

type Spool struct {
	dir string
}

func New(dir string) *Spool {
	return &Spool{dir: dir}
}

// entryPath keys spool files by trait, so a second publish for the same
// trait overwrites the buffered one rather than queueing behind it.
func (s *Spool) entryPath(trait string) string {
	sum := sha256.Sum256([]byte(trait))
	return filepath.Join(s.dir, hex.EncodeToString(sum[:16])+".json")
}

// Put buffers one registration document, overwriting any buffered document
// for the same trait. The write goes through a temp file so a crashed
// publisher never leaves a half-written entry for the daemon to drain.
func (s *Spool) Put(doc *assets.Document) error {
	if err := os.MkdirAll(s.dir, 0700); err != nil {
		return fmt.Errorf("create spool dir: %w", err)
	}

	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encode spool entry: %w", err)
	}

	path := s.entryPath(doc.Trait)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0600); err != nil {
		return fmt.Errorf("write spool entry: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("commit spool entry: %w", err)
	}

	log.Debug("publish buffered", "trait", doc.Trait, "path", path)
	return nil
}

// Drain reads every buffered document and removes it. Undecodable entries
// are removed and skipped; the spool never blocks daemon startup.
func (s *Spool) Drain() ([]*assets.Document, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read spool dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".json" {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	var docs []*assets.Document
	for _, name := range names {
		path := filepath.Join(s.dir, name)

		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn("unreadable spool entry skipped", "path", path, "error", err)
			continue
		}

		doc, err := assets.Decode(data)
		if err != nil {
			log.Warn("corrupt spool entry dropped", "path", path, "error", err)
			os.Remove(path)
			continue
		}

		os.Remove(path)
		docs = append(docs, doc)
	}
	return docs, nil
}

// Len counts buffered documents without draining them.
func (s *Spool) Len() int {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0
	}

	n := 0
	for _, entry := range entries {
		if !entry.IsDir() && filepath.Ext(entry.Name()) == ".json" {
			n++
		}
	}
	return n
}
