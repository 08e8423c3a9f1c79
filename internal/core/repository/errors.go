package repository

import (
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/duynhne/account-service/internal/core/domain"
)

// translateWrite maps a driver write error onto the store taxonomy:
// uniqueness violations become KindDuplicateKey, everything else
// KindWriteFailed.
func translateWrite(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *domain.StoreError
	if errors.As(err, &se) {
		return err
	}
	if mongo.IsDuplicateKeyError(err) {
		return &domain.StoreError{Op: op, Kind: domain.KindDuplicateKey, Err: err}
	}
	return &domain.StoreError{Op: op, Kind: domain.KindWriteFailed, Err: err}
}

// translateRead maps a driver read error: no documents becomes
// KindNotFound, anything else KindReadFailed.
func translateRead(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return &domain.StoreError{Op: op, Kind: domain.KindNotFound}
	}
	return &domain.StoreError{Op: op, Kind: domain.KindReadFailed, Err: err}
}

func notFound(op string) error {
	return &domain.StoreError{Op: op, Kind: domain.KindNotFound}
}

// duplicateIndex returns the name of the index a duplicate key error was
// raised on, or "" when it cannot be determined.
func duplicateIndex(err error) string {
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if e.Code == 11000 || e.Code == 11001 || e.Code == 12582 {
				return indexFromMessage(e.Message)
			}
		}
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return indexFromMessage(ce.Message)
	}
	return ""
}

// indexFromMessage extracts NAME from "E11000 ... index: NAME dup key: {...}".
func indexFromMessage(msg string) string {
	const marker = " index: "
	i := strings.Index(msg, marker)
	if i < 0 {
		return ""
	}
	rest := msg[i+len(marker):]
	if j := strings.IndexByte(rest, ' '); j >= 0 {
		rest = rest[:j]
	}
	return rest
}
