package crud

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	"tunefeed/errs"
)

// searchLimit caps the number of results of a user or post search.
const searchLimit = 50

// likeEscape is appended to LIKE conditions built with likePattern.
const likeEscape = ` ESCAPE '\'`

// likePattern turns a search query into a case-insensitive LIKE pattern matching the
// query anywhere in a value. LIKE wildcards in the query are escaped with a backslash.
func likePattern(query string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(strings.ToLower(query)) + "%"
}

// notFound replaces gorm.ErrRecordNotFound with an ENOTFOUND error carrying msg.
// Any other error is returned unchanged.
func notFound(err error, msg string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return errs.Errorf(errs.ENOTFOUND, "%s", msg)
	}
	return err
}

// exists reports whether a record of model matches the given condition.
func exists(db *gorm.DB, model interface{}, query string, args ...interface{}) (bool, error) {
	var count int64
	if err := db.Model(model).Where(query, args...).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
