package market

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/photon-storage/idea-market/database/orm"
)

// emit appends an outbox event inside the operation's transaction, so an
// event exists iff the operation committed. The payload reads
// "<kind>|k:v|k:v".
func emit(tx *gorm.DB, kind orm.EventKind, format string, args ...any) error {
	ev := &orm.Event{
		UUID:    uuid.NewString(),
		Kind:    kind,
		Payload: string(kind) + "|" + fmt.Sprintf(format, args...),
	}
	if err := tx.Create(ev).Error; err != nil {
		return errors.Wrap(err, "append event")
	}

	return nil
}
