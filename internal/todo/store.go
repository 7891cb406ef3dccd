// Package todo keeps the to-do list in a flat file, one task per line.
// Position is the only identifier, so completing task N shifts every later
// task down by one.
package todo

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/afero"
)

var (
	ErrEmptyTask    = errors.New("empty task")
	ErrInvalidIndex = errors.New("invalid task number")
	ErrOutOfRange   = errors.New("task number not on list")
)

type Store struct {
	mu   sync.Mutex
	fs   afero.Fs
	path string
}

func NewStore(fs afero.Fs, path string) *Store {
	return &Store{fs: fs, path: path}
}

// List returns the tasks in order. A missing file is an empty list.
func (s *Store) List() ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read()
}

func (s *Store) Add(task string) ([]string, error) {
	task = strings.TrimSpace(task)
	if task == "" {
		return nil, ErrEmptyTask
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.read()
	if err != nil {
		return nil, err
	}
	tasks = append(tasks, task)
	if err := s.write(tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// Complete removes the task at the 1-based position given as text. On any
// error the file is left untouched.
func (s *Store) Complete(number string) (string, error) {
	n, err := strconv.Atoi(strings.TrimSpace(number))
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidIndex, number)
	}
	if n <= 0 {
		return "", fmt.Errorf("%w: %d", ErrInvalidIndex, n)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.read()
	if err != nil {
		return "", err
	}
	if n > len(tasks) {
		return "", fmt.Errorf("%w: %d of %d", ErrOutOfRange, n, len(tasks))
	}

	removed := tasks[n-1]
	tasks = append(tasks[:n-1], tasks[n:]...)
	if err := s.write(tasks); err != nil {
		return "", err
	}
	return removed, nil
}

func (s *Store) read() ([]string, error) {
	f, err := s.fs.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("open todo file: %w", err)
	}
	defer f.Close()

	var tasks []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		tasks = append(tasks, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read todo file: %w", err)
	}
	return tasks, nil
}

func (s *Store) write(tasks []string) error {
	var b strings.Builder
	for _, t := range tasks {
		b.WriteString(t)
		b.WriteByte('\n')
	}
	if err := afero.WriteFile(s.fs, s.path, []byte(b.String()), 0o644); err != nil {
		return fmt.Errorf("write todo file: %w", err)
	}
	return nil
}
