// Package blob хранит файлы вложений сканов на локальном диске.
package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"
)

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9]`)

// Store сохраняет и читает файлы в каталоге uploads.
type Store struct {
	dir string
}

// New создает каталог для файлов, если его еще нет.
func New(dir string) (*Store, error) {
	const op = "blob.New"
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &Store{dir: dir}, nil
}

// BuildFilename собирает имя файла на диске: scan_<scanID>_<uuid>_<база><расширение>.
// Из базового имени убираются все символы кроме латинских букв и цифр.
func BuildFilename(scanID int, originalName string) string {
	ext := filepath.Ext(originalName)
	base := strings.TrimSuffix(filepath.Base(originalName), ext)
	base = unsafeChars.ReplaceAllString(base, "_")
	return fmt.Sprintf("scan_%d_%s_%s%s", scanID, uuid.New().String(), base, ext)
}

// Save записывает содержимое в файл с данным именем и возвращает размер.
func (s *Store) Save(filename string, r io.Reader) (int64, error) {
	const op = "blob.Save"
	f, err := os.Create(filepath.Join(s.dir, filepath.Base(filename)))
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	n, err := io.Copy(f, r)
	if err != nil {
		f.Close()
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if err = f.Close(); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// Open открывает файл для чтения. Вызывающий обязан закрыть его.
func (s *Store) Open(filename string) (io.ReadSeekCloser, error) {
	const op = "blob.Open"
	f, err := os.Open(filepath.Join(s.dir, filepath.Base(filename)))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return f, nil
}

// Remove удаляет файл. Отсутствие файла ошибкой не считается.
func (s *Store) Remove(filename string) error {
	const op = "blob.Remove"
	err := os.Remove(filepath.Join(s.dir, filepath.Base(filename)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
