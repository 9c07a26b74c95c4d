package models

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"
)

// PageSeparator joins page texts in ExtractionResult.FullText.
const PageSeparator = "\n"

// SourceKind tells where the document bytes live.
type SourceKind string

const (
	SourceLocal  SourceKind = "local"
	SourceRemote SourceKind = "remote"
)

// DocumentReference identifies a document to summarize. It is immutable once
// created; the pipeline only reads it.
type DocumentReference struct {
	kind    SourceKind
	path    string
	url     string
	name    string
	size    int64
	modTime time.Time
}

// NewLocalReference references a file on disk. The file is stat'ed once so
// the reference carries the size and modification time used for fingerprinting.
// An empty declaredName defaults to the file's base name.
func NewLocalReference(path, declaredName string) (DocumentReference, error) {
	info, err := os.Stat(path)
	if err != nil {
		return DocumentReference{}, fmt.Errorf("failed to stat document: %w", err)
	}
	if info.IsDir() {
		return DocumentReference{}, fmt.Errorf("document path is a directory: %s", path)
	}
	if declaredName == "" {
		declaredName = filepath.Base(path)
	}
	return DocumentReference{
		kind:    SourceLocal,
		path:    path,
		name:    declaredName,
		size:    info.Size(),
		modTime: info.ModTime(),
	}, nil
}

// NewRemoteReference references a document behind a URL (http, https, s3 or minio).
func NewRemoteReference(url, declaredName string) DocumentReference {
	return DocumentReference{
		kind: SourceRemote,
		url:  url,
		name: declaredName,
	}
}

func (r DocumentReference) Kind() SourceKind     { return r.kind }
func (r DocumentReference) Path() string         { return r.path }
func (r DocumentReference) URL() string          { return r.url }
func (r DocumentReference) DeclaredName() string { return r.name }
func (r DocumentReference) Size() int64          { return r.size }
func (r DocumentReference) ModTime() time.Time   { return r.modTime }

// Fingerprint derives the stable content key used for deduplication and
// caching: the URL for remote documents, name+size+mtime for local ones.
func (r DocumentReference) Fingerprint() string {
	var key string
	switch r.kind {
	case SourceRemote:
		key = "remote|" + r.url
	default:
		key = "local|" + r.name + "|" + strconv.FormatInt(r.size, 10) + "|" + strconv.FormatInt(r.modTime.UnixNano(), 10)
	}
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// ExtractionStrategy is the method used to turn bytes into text.
type ExtractionStrategy string

const (
	StrategyPlainText     ExtractionStrategy = "plain_text"
	StrategyWordProcessor ExtractionStrategy = "word_processor"
	StrategyPdfNative     ExtractionStrategy = "pdf_native"
	StrategyOcr           ExtractionStrategy = "ocr"
)

// PageText is the text of one page, PageIndex starting at 0.
type PageText struct {
	PageIndex int    `json:"pageIndex"`
	Text      string `json:"text"`
}

type ExtractionResult struct {
	FullText     string             `json:"fullText"`
	PageCount    int                `json:"pageCount"`
	UsedFallback bool               `json:"usedFallback"`
	Warnings     []string           `json:"warnings,omitempty"`
	Pages        []PageText         `json:"pages,omitempty"`
	Strategy     ExtractionStrategy `json:"strategy"`
}

// JoinPages builds the result for page-aware extractors. Pages must already be
// ordered by PageIndex.
func JoinPages(strategy ExtractionStrategy, pages []PageText) *ExtractionResult {
	var size int
	for _, p := range pages {
		size += len(p.Text) + len(PageSeparator)
	}
	buf := make([]byte, 0, size)
	for i, p := range pages {
		if i > 0 {
			buf = append(buf, PageSeparator...)
		}
		buf = append(buf, p.Text...)
	}
	return &ExtractionResult{
		FullText:  string(buf),
		PageCount: len(pages),
		Pages:     pages,
		Strategy:  strategy,
	}
}

// SummaryResult is the opaque bullet list returned by the summarization service.
type SummaryResult struct {
	Bullets string `json:"bullets"`
}
