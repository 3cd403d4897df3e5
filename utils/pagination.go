package utils

import "github.com/gofiber/fiber/v2"

const maxPageSize = 100

// Pagination reads ?page= and ?page_size= with sane bounds.
func Pagination(c *fiber.Ctx, defaultSize int) (page, pageSize int) {
	page = c.QueryInt("page", 1)
	if page < 1 {
		page = 1
	}
	pageSize = c.QueryInt("page_size", defaultSize)
	if pageSize < 1 || pageSize > maxPageSize {
		pageSize = defaultSize
	}
	return page, pageSize
}
