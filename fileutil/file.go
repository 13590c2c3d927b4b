// Copyright (c) 2016, Daniel Martí <mvdan@mvdan.cc>
// See LICENSE for licensing information

// Package fileutil contains code to work with shell files, also known
// as shell scripts.
package fileutil

import (
	"bytes"
	"io/fs"
	"os"
	"regexp"
	"strings"
)

var (
	shebangLineRe = regexp.MustCompile(`^#![ \t]*(/\S*)`)
	extRe         = regexp.MustCompile(`\.(sh|bash)$`)
)

// Shebang returns the interpreter name named on bs's first line's `#!`
// shebang, or "" if the line has no shebang or it doesn't name an
// absolute path (form-feed or other leading whitespace, or a path that
// doesn't start with `/`, disqualify it — those are never valid
// shebangs, whatever the kernel's own loader accepts). When the path's
// final component is `env`, the name is taken from env's own first
// argument instead (`#!/usr/bin/env bash` reports "bash", matching
// what the kernel actually execs).
func Shebang(bs []byte) string {
	if i := bytes.IndexByte(bs, '\n'); i >= 0 {
		bs = bs[:i]
	}
	m := shebangLineRe.FindSubmatch(bs)
	if m == nil {
		return ""
	}
	path := string(m[1])
	rest := string(bs[len(m[0]):])
	name := path[strings.LastIndexByte(path, '/')+1:]
	if name != "env" {
		return name
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// HasShebang reports whether bs begins with a valid sh or bash shebang.
// It supports variations with /usr and env.
func HasShebang(bs []byte) bool {
	switch Shebang(bs) {
	case "sh", "bash":
		return true
	}
	return false
}

// ScriptConfidence defines how likely a file is to be a shell script,
// from complete certainty that it is not one to complete certainty that
// it is one.
type ScriptConfidence int

const (
	// ConfNotScript describes files which are definitely not shell scripts,
	// such as non-regular files or files with a non-shell extension.
	ConfNotScript ScriptConfidence = iota

	// ConfIfShebang describes files which might be shell scripts, depending
	// on the shebang line in the file's contents. Since CouldBeScript only
	// works on os.FileInfo, the answer in this case can't be final.
	ConfIfShebang

	// ConfIsScript describes files which are definitely shell scripts,
	// which are regular files with a valid shell extension.
	ConfIsScript
)

// CouldBeScript is a shortcut for CouldBeScript2(fs.FileInfoToDirEntry(info)).
//
// Deprecated: prefer CouldBeScript2, which usually requires fewer syscalls.
func CouldBeScript(info os.FileInfo) ScriptConfidence {
	// TODO: once we drop support for Go 1.16,
	// make use of this Go 1.17 API instead:
	// return CouldBeScript2(fs.FileInfoToDirEntry(info))

	name := info.Name()
	switch {
	case info.IsDir(), name[0] == '.':
		return ConfNotScript
	case info.Mode()&os.ModeSymlink != 0:
		return ConfNotScript
	case extRe.MatchString(name):
		return ConfIsScript
	case strings.IndexByte(name, '.') > 0:
		return ConfNotScript // different extension
	default:
		return ConfIfShebang
	}
}

// CouldBeScript2 reports how likely a directory entry is to be a shell script.
// It discards directories, symlinks, hidden files and files with non-shell
// extensions.
func CouldBeScript2(entry fs.DirEntry) ScriptConfidence {
	name := entry.Name()
	switch {
	case entry.IsDir(), name[0] == '.':
		return ConfNotScript
	case entry.Type()&os.ModeSymlink != 0:
		return ConfNotScript
	case extRe.MatchString(name):
		return ConfIsScript
	case strings.IndexByte(name, '.') > 0:
		return ConfNotScript // different extension
	default:
		return ConfIfShebang
	}
}
