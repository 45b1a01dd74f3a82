package tasks

import (
	"time"

	"github.com/perchapp/perch/utils"
)

// attachmentReclaimer is the slice of FileService the reclaimer needs.
type attachmentReclaimer interface {
	ReclaimOrphans() (int, error)
}

// NewAttachmentReclaimer builds the recurring job that deletes
// attachments never linked to a post within the retention window. The
// interval normally equals the retention window itself.
func NewAttachmentReclaimer(files attachmentReclaimer, interval time.Duration) *Recurring {
	return NewRecurring("attachment reclaimer", interval, func() error {
		n, err := files.ReclaimOrphans()
		if err != nil {
			return err
		}
		if n > 0 && utils.Sugar != nil {
			utils.Sugar.Infof("attachment reclaimer: removed %d orphan attachments", n)
		}
		return nil
	})
}
