package replay

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"driftpursuit/vehicles/internal/logging"
)

// RetentionPolicy bounds how many recordings stay on disk. Zero values disable a limit.
type RetentionPolicy struct {
	MaxRuns int
	MaxAge  time.Duration
}

// StorageStats summarises the recordings kept after a sweep.
type StorageStats struct {
	Runs    int
	Removed int
	Bytes   int64
}

// Cleaner prunes recordings under a root directory.
type Cleaner struct {
	dir    string
	policy RetentionPolicy
	log    *logging.Logger
	now    func() time.Time
}

// NewCleaner constructs a cleaner for root.
func NewCleaner(root string, policy RetentionPolicy, logger *logging.Logger) *Cleaner {
	if logger == nil {
		logger = logging.L()
	}
	return &Cleaner{dir: root, policy: policy, log: logger, now: time.Now}
}

type recording struct {
	path    string
	size    int64
	modTime time.Time
}

// Sweep removes recordings beyond the policy, newest first kept. Only directories holding a
// manifest are considered, so unrelated files under the root are never touched.
func (c *Cleaner) Sweep() (StorageStats, error) {
	var stats StorageStats
	if c == nil || strings.TrimSpace(c.dir) == "" {
		return stats, nil
	}
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, err
	}
	//1.- Collect recordings and order them newest first.
	var runs []recording
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		path := filepath.Join(c.dir, entry.Name())
		info, err := os.Stat(filepath.Join(path, manifestFile))
		if err != nil {
			continue
		}
		size, err := directorySize(path)
		if err != nil {
			c.log.Warn("recording size failed", logging.String("path", path), logging.Error(err))
			continue
		}
		runs = append(runs, recording{path: path, size: size, modTime: info.ModTime()})
	}
	sort.Slice(runs, func(i, j int) bool { return runs[i].modTime.After(runs[j].modTime) })

	//2.- Drop what is too old or beyond the run budget.
	now := c.now()
	for _, run := range runs {
		reason := c.removalReason(run, now, stats.Runs)
		if reason == "" {
			stats.Runs++
			stats.Bytes += run.size
			continue
		}
		if err := os.RemoveAll(run.path); err != nil {
			c.log.Warn("recording removal failed", logging.String("path", run.path), logging.Error(err))
			stats.Runs++
			stats.Bytes += run.size
			continue
		}
		stats.Removed++
		c.log.Info("recording removed", logging.String("path", run.path), logging.String("reason", reason))
	}
	return stats, nil
}

func (c *Cleaner) removalReason(run recording, now time.Time, kept int) string {
	var reasons []string
	if c.policy.MaxAge > 0 && now.Sub(run.modTime) > c.policy.MaxAge {
		reasons = append(reasons, fmt.Sprintf("age>%s", c.policy.MaxAge))
	}
	if c.policy.MaxRuns > 0 && kept >= c.policy.MaxRuns {
		reasons = append(reasons, fmt.Sprintf(">=%d runs", c.policy.MaxRuns))
	}
	return strings.Join(reasons, ", ")
}

func directorySize(root string) (int64, error) {
	var total int64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		total += info.Size()
		return nil
	})
	return total, err
}
