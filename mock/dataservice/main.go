// Command dataservice is a local stand-in for the hosted REST data service.
// It speaks the subset of the PostgREST protocol the rest gateway uses and
// keeps its rows in memory.
package main

import (
	"context"
	"log"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"cinepulse-catalog/internal/domain"
	"cinepulse-catalog/internal/infra/memory"
	"cinepulse-catalog/internal/infra/rest"
)

// request is a parsed collection read.
type request struct {
	query domain.Query
	joins []string
}

// parseRequest reads select, order, limit and col=eq.value parameters.
// Unknown operators are ignored.
func parseRequest(params map[string]string) request {
	var req request
	req.query.Filter = domain.Filter{}

	for key, value := range params {
		switch key {
		case "select":
			for _, part := range strings.Split(value, ",") {
				if name, ok := strings.CutSuffix(strings.TrimSpace(part), "(*)"); ok {
					req.joins = append(req.joins, name)
				}
			}
		case "order":
			col, dir, _ := strings.Cut(value, ".")
			req.query.OrderBy = col
			req.query.Descending = dir == "desc"
		case "limit":
			req.query.Limit, _ = strconv.Atoi(value)
		default:
			if v, ok := strings.CutPrefix(value, "eq."); ok {
				req.query.Filter[key] = v
			}
		}
	}

	return req
}

func newApp(g *memory.Gateway) *fiber.App {
	app := fiber.New(fiber.Config{AppName: "mock-dataservice"})

	app.Use(func(c *fiber.Ctx) error {
		// Simulate network latency (50-200ms)
		time.Sleep(time.Duration(50+rand.Intn(150)) * time.Millisecond)

		err := c.Next()
		log.Printf("[dataservice] %s %s - %d", c.Method(), c.OriginalURL(), c.Response().StatusCode())
		return err
	})

	base := app.Group(rest.BasePath)

	base.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	base.Get("/:collection", func(c *fiber.Ctx) error {
		req := parseRequest(c.Queries())
		ctx := context.Background()

		var (
			rows []domain.RawRecord
			err  error
		)
		if len(req.joins) > 0 {
			rows, err = g.ReadWithJoin(ctx, c.Params("collection"), req.query.Filter, req.joins...)
		} else {
			rows, err = g.Read(ctx, c.Params("collection"), req.query)
		}
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}

		return c.JSON(rows)
	})

	base.Post("/:collection", func(c *fiber.Ctx) error {
		var record domain.RawRecord
		if err := c.BodyParser(&record); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": err.Error()})
		}

		row, err := g.Insert(context.Background(), c.Params("collection"), record)
		if err != nil {
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"message": err.Error()})
		}

		return c.Status(fiber.StatusCreated).JSON([]domain.RawRecord{row})
	})

	return app
}

func seed(g *memory.Gateway) {
	g.Seed(domain.CollectionMovies,
		domain.RawRecord{"id": "0b6f3a52-1c1e-4a43-9d4e-6d1c2e1f0a01", "title": "The Quiet Harbor", "description": "A lighthouse keeper finds a message in a bottle.",
			"genre": []string{"Drama"}, "release_year": 2021, "duration_minutes": 104, "rating": 7.4,
			"poster_url": "placeholder-poster-url-1", "created_at": "2024-01-10T09:00:00Z"},
		domain.RawRecord{"id": "0b6f3a52-1c1e-4a43-9d4e-6d1c2e1f0a02", "title": "Neon Drift", "description": "Street racers in a city that never sleeps.",
			"genre": []string{"Action", "Thriller"}, "release_year": 2023, "duration_minutes": 118, "rating": 6.8,
			"poster_url": "placeholder-poster-url-2", "created_at": "2024-03-02T18:30:00Z"},
	)
	g.Seed(domain.CollectionTVShows,
		domain.RawRecord{"id": "5c1d9e7a-7f0b-4a8e-b6a1-3e2f4d5c6b01", "title": "Orbit Station", "description": "Life aboard the last research station.",
			"genre": []string{"Sci-Fi"}, "release_year": 2022, "seasons": 2, "rating": 8.1,
			"poster_url": "placeholder-poster-url-3", "created_at": "2024-02-14T12:00:00Z"},
	)
}

func main() {
	g := memory.NewGateway()
	seed(g)

	log.Println("Mock data service running on :8081")
	log.Fatal(newApp(g).Listen(":8081"))
}
