package attendance

import (
	"errors"
	"strings"

	"qrattend/internal/model"
	"qrattend/internal/qrcode"
)

// ErrStudentNotFound means a scanned payload matches no enrolled student.
var ErrStudentNotFound = errors.New("student not found")

// Resolve maps scanned text to a roster entry. A structured payload that
// carries an id is matched by that id only, so a code issued to a removed
// student never marks whoever holds its roll number now; the roll number is
// used only when the payload has no id. Anything else is matched verbatim
// against ids and roll numbers. The roster entry is returned, not the
// scanned fields.
func Resolve(payload string, roster []model.Student) (*model.Student, error) {
	if p, ok := qrcode.ParsePayload(payload); ok {
		var st *model.Student
		if p.ID != "" {
			st = find(roster, p.ID, "")
		} else {
			st = find(roster, "", p.RollNumber)
		}
		if st == nil {
			return nil, ErrStudentNotFound
		}
		return st, nil
	}

	text := strings.TrimSpace(payload)
	if text == "" {
		return nil, ErrStudentNotFound
	}
	if st := find(roster, text, text); st != nil {
		return st, nil
	}
	return nil, ErrStudentNotFound
}

func find(roster []model.Student, id, rollNumber string) *model.Student {
	if id != "" {
		for i := range roster {
			if roster[i].ID == id {
				st := roster[i]
				return &st
			}
		}
	}
	if rollNumber != "" {
		for i := range roster {
			if roster[i].RollNumber == rollNumber {
				st := roster[i]
				return &st
			}
		}
	}
	return nil
}
