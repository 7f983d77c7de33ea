package utils

import (
	"github.com/kataras/iris/v12"
	"github.com/kataras/iris/v12/middleware/jwt"

	"github.com/peaceghost-hub/EasyAccomodation/models"
	"github.com/peaceghost-hub/EasyAccomodation/storage"
)

// Audit appends a row to the admin audit log. targetUserID may be nil for
// actions without a user target.
func Audit(ctx iris.Context, action string, targetUserID *uint, details string) {
	var actorID uint
	if tok := jwt.Get(ctx); tok != nil {
		if at, ok := tok.(*AccessToken); ok {
			actorID = at.ID
		}
	}
	entry := models.AdminAudit{
		ActorID:      actorID,
		TargetUserID: targetUserID,
		Action:       action,
		Details:      details,
	}
	storage.DB.Create(&entry)
}
