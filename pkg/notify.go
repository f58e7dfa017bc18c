package dupfind

// Notifier receives progress from a running scan. Calls are made from the
// goroutine that called Scan, never from hash workers.
type Notifier interface {
	// CandidatesFound is called once size filtering is done with the
	// number of files that still need hashing.
	CandidatesFound(n int)
	// DuplicatesConfirmed is called after hashing with the number of groups.
	DuplicatesConfirmed(groups int)
	// EntrySkipped is called for every entry dropped because it could not be read.
	EntrySkipped(entry SkippedEntry)
}

// NopNotifier discards all progress.
type NopNotifier struct{}

func (NopNotifier) CandidatesFound(int)       {}
func (NopNotifier) DuplicatesConfirmed(int)   {}
func (NopNotifier) EntrySkipped(SkippedEntry) {}

// LogNotifier writes progress through the verbose logger.
type LogNotifier struct{}

func (LogNotifier) CandidatesFound(n int) {
	VerboseLog(1, "%d candidate files share a size with another file", n)
}

func (LogNotifier) DuplicatesConfirmed(groups int) {
	VerboseLog(1, "%d duplicate groups confirmed", groups)
}

func (LogNotifier) EntrySkipped(entry SkippedEntry) {
	if entry.Stage == StageHash {
		Warnf("%v", entry)
		return
	}
	VerboseLog(2, "%v", entry)
}
