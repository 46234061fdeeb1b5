package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/trentd187/golf-metrics/internal/repository"
)

// PageResponse is the envelope for every list endpoint.
type PageResponse[T any] struct {
	Count    int64   `json:"count"`    // Total matches across all pages
	Next     *string `json:"next"`     // Absolute URL of the next page, or null
	Previous *string `json:"previous"` // Absolute URL of the previous page, or null
	Results  []T     `json:"results"`
}

// pageParams reads ?page and ?page_size. A page that isn't a positive integer gets the
// same 404 as a page past the end; a bad page_size falls back to the default.
func (env *Env) pageParams(c *fiber.Ctx) (repository.Page, error) {
	page := repository.Page{Number: 1, Size: env.PageSize}

	if raw := c.Query("page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return page, invalidPage(c)
		}
		page.Number = n
	}
	if n, err := strconv.Atoi(c.Query("page_size")); err == nil && n > 0 {
		page.Size = min(n, env.MaxPageSize)
	}
	return page, nil
}

func invalidPage(c *fiber.Ctx) error {
	_ = c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "invalid page"})
	return errResponded
}

// paginate wraps one page of results. Asking for a page past the last one is a 404, except
// page 1 of an empty list.
func paginate[T any](c *fiber.Ctx, page repository.Page, total int64, results []T) error {
	if page.Number > 1 && int64(page.Offset()) >= total {
		return finish(invalidPage(c))
	}

	resp := PageResponse[T]{Count: total, Results: results}
	if int64(page.Number*page.Size) < total {
		resp.Next = ptr(pageURL(c, page.Number+1))
	}
	if page.Number > 1 {
		resp.Previous = ptr(pageURL(c, page.Number-1))
	}
	return c.JSON(resp)
}

// pageURL rebuilds the request URL with page set to n, keeping every other query
// parameter. Page 1 is written without the page parameter.
func pageURL(c *fiber.Ctx, n int) string {
	args := fasthttp.AcquireArgs()
	defer fasthttp.ReleaseArgs(args)
	c.Request().URI().QueryArgs().CopyTo(args)

	if n == 1 {
		args.Del("page")
	} else {
		args.SetUint("page", n)
	}

	u := c.BaseURL() + c.Path()
	if args.Len() > 0 {
		u += "?" + args.String()
	}
	return u
}
