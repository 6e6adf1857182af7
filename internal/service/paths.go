package service

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// UncategorizedCategory — категория для пустого или корневого пути.
const UncategorizedCategory = "Uncategorized"

// Клиенты бывают на Windows: путь вида C:\... абсолютен независимо от ОС сервера.
var windowsAbsRe = regexp.MustCompile(`^[A-Za-z]:[\\/]`)

// NormalizePath приводит путь к абсолютной канонической форме без обращения к ФС.
func NormalizePath(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", validationErr("path is required")
	}
	if windowsAbsRe.MatchString(p) {
		return cleanWindowsPath(p), nil
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", validationErr("path %q: %v", p, err)
	}
	return abs, nil
}

func cleanWindowsPath(p string) string {
	rest := path.Clean("/" + strings.ReplaceAll(p[3:], `\`, "/"))
	return p[:2] + strings.ReplaceAll(rest, "/", `\`)
}

func isSeparator(r rune) bool { return r == '/' || r == '\\' }

func isRootPath(p string) bool {
	return p == "/" || p == `\` || (windowsAbsRe.MatchString(p) && len(p) == 3)
}

// ParentFolder возвращает папку, в которой лежит p (p уже нормализован).
func ParentFolder(p string) string {
	i := strings.LastIndexAny(p, `/\`)
	switch {
	case i < 0:
		return p
	case i == 0:
		return p[:1]
	case i == 2 && windowsAbsRe.MatchString(p):
		return p[:3]
	}
	return p[:i]
}

// ExtractCategoryFromPath выводит категорию из последнего сегмента пути:
// "/home/user/my_folder" -> "My Folder". Пустой или корневой путь даёт "Uncategorized".
func ExtractCategoryFromPath(p string) string {
	if strings.TrimSpace(p) == "" {
		return UncategorizedCategory
	}
	norm, err := NormalizePath(p)
	if err != nil || isRootPath(norm) {
		return UncategorizedCategory
	}
	segments := strings.FieldsFunc(norm, isSeparator)
	if len(segments) == 0 {
		return UncategorizedCategory
	}
	last := segments[len(segments)-1]
	words := strings.Fields(strings.NewReplacer("_", " ", "-", " ").Replace(last))
	if len(words) == 0 {
		return UncategorizedCategory
	}
	return cases.Title(language.Und).String(strings.Join(words, " "))
}

// hasPathPrefix сообщает, лежит ли p внутри mount (с учётом границы сегмента).
func hasPathPrefix(p, mount string) bool {
	if mount == "" || !strings.HasPrefix(p, mount) {
		return false
	}
	if len(p) == len(mount) || strings.HasSuffix(mount, "/") || strings.HasSuffix(mount, `\`) {
		return true
	}
	return isSeparator(rune(p[len(mount)]))
}
