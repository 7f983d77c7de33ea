package utils

import (
	"github.com/kataras/iris/v12"
)

type PageMeta struct {
	Page    int   `json:"page"`
	PerPage int   `json:"perPage"`
	Total   int64 `json:"total"`
}

func JSONPage(ctx iris.Context, key string, data interface{}, page, perPage int, total int64) {
	ctx.JSON(iris.Map{
		"success": true,
		key:       data,
		"meta":    PageMeta{Page: page, PerPage: perPage, Total: total},
	})
}

func JSONError(ctx iris.Context, status int, message string) {
	ctx.StatusCode(status)
	ctx.JSON(iris.Map{"success": false, "message": message})
}
