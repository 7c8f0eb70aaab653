// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package notification

import (
	"context"
	"encoding/binary"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"
)

// WatchDir reloads the catalog in dir whenever one of its *.jsonc
// files is written or renamed into place, and passes each successful
// reload to apply. A reload that fails (a unit mid-edit, a bad
// template) is logged and the previous catalog stays in use. The
// watcher stops when ctx is done.
//
// The directory is watched rather than the files so that editors that
// write a temporary file and rename it are seen.
func WatchDir(ctx context.Context, dir string, apply func(*Catalog), logger *slog.Logger) error {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	fd, err := unix.InotifyInit1(unix.IN_NONBLOCK | unix.IN_CLOEXEC)
	if err != nil {
		return fmt.Errorf("notification: inotify: %w", err)
	}
	if _, err := unix.InotifyAddWatch(fd, dir, unix.IN_CLOSE_WRITE|unix.IN_MOVED_TO|unix.IN_DELETE); err != nil {
		unix.Close(fd)
		return fmt.Errorf("notification: watching %s: %w", dir, err)
	}
	go watchLoop(ctx, fd, dir, apply, logger)
	return nil
}

// watchLoop polls with a short timeout so cancellation is noticed, and
// after a change waits briefly and drains queued events so a burst of
// writes causes one reload.
func watchLoop(ctx context.Context, fd int, dir string, apply func(*Catalog), logger *slog.Logger) {
	defer unix.Close(fd)

	buffer := make([]byte, 4096)
	for ctx.Err() == nil {
		pollDescriptors := []unix.PollFd{{Fd: int32(fd), Events: unix.POLLIN}}
		count, err := unix.Poll(pollDescriptors, 100)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			logger.Error("catalog watcher stopped", "dir", dir, "error", err)
			return
		}
		if count == 0 {
			continue
		}

		bytesRead, err := unix.Read(fd, buffer)
		if err != nil {
			if err == unix.EAGAIN || err == unix.EINTR {
				continue
			}
			logger.Error("catalog watcher stopped", "dir", dir, "error", err)
			return
		}
		if !touchesUnit(buffer[:bytesRead]) {
			continue
		}

		time.Sleep(50 * time.Millisecond)
		drainEvents(fd, buffer)

		catalog, err := LoadDir(dir)
		if err != nil {
			logger.Warn("catalog reload failed; keeping the previous catalog", "dir", dir, "error", err)
			continue
		}
		logger.Info("notification catalog reloaded", "dir", dir, "locales", catalog.Locales())
		apply(catalog)
	}
}

// touchesUnit reports whether any inotify event in buffer names a
// *.jsonc file. Layout from inotify(7):
//
//	struct inotify_event {
//	    int32_t  wd;     // offset 0
//	    uint32_t mask;   // offset 4
//	    uint32_t cookie; // offset 8
//	    uint32_t len;    // offset 12
//	    char     name[]; // offset 16, null-padded
//	};
func touchesUnit(buffer []byte) bool {
	offset := 0
	for offset+unix.SizeofInotifyEvent <= len(buffer) {
		nameLength := int(binary.NativeEndian.Uint32(buffer[offset+12 : offset+16]))
		eventSize := unix.SizeofInotifyEvent + nameLength
		if offset+eventSize > len(buffer) {
			break
		}
		name := buffer[offset+unix.SizeofInotifyEvent : offset+eventSize]
		if end := strings.IndexByte(string(name), 0); end >= 0 {
			name = name[:end]
		}
		if filepath.Ext(string(name)) == ".jsonc" {
			return true
		}
		offset += eventSize
	}
	return false
}

func drainEvents(fd int, buffer []byte) {
	for {
		if _, err := unix.Read(fd, buffer); err != nil {
			return
		}
	}
}
