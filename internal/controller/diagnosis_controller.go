package controller

import (
	"bufio"
	"context"
	"errors"
	"sync"
	"time"

	"plant-doctor-be/internal/dto"
	"plant-doctor-be/internal/pkg/serverutils"
	"plant-doctor-be/internal/service"
	"plant-doctor-be/pkg/diagnosis"
	"plant-doctor-be/pkg/sse"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
)

type IDiagnosisController interface {
	RegisterRoutes(r fiber.Router)
	Stream(ctx *fiber.Ctx) error
	SuggestDiseases(ctx *fiber.Ctx) error
	LookupTreatments(ctx *fiber.Ctx) error
	History(ctx *fiber.Ctx) error
	HistoryDetail(ctx *fiber.Ctx) error
}

type diagnosisController struct {
	diagnosisService service.IDiagnosisService
	knowledgeService service.IKnowledgeService
	historyService   service.IHistoryService
	rateLimiter      fiber.Handler
	heartbeat        time.Duration
}

func NewDiagnosisController(
	diagnosisService service.IDiagnosisService,
	knowledgeService service.IKnowledgeService,
	historyService service.IHistoryService,
	rateLimiter fiber.Handler,
	heartbeat time.Duration,
) IDiagnosisController {
	if rateLimiter == nil {
		rateLimiter = func(ctx *fiber.Ctx) error { return ctx.Next() }
	}
	return &diagnosisController{
		diagnosisService: diagnosisService,
		knowledgeService: knowledgeService,
		historyService:   historyService,
		rateLimiter:      rateLimiter,
		heartbeat:        heartbeat,
	}
}

func (c *diagnosisController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/diagnosis/v1")
	h.Post("/stream", serverutils.OptionalJwtMiddleware, c.rateLimiter, c.Stream)
	h.Get("/diseases/suggest", c.SuggestDiseases)
	h.Get("/treatments", c.LookupTreatments)
	h.Get("/history", serverutils.JwtMiddleware, c.History)
	h.Get("/history/:id", serverutils.JwtMiddleware, c.HistoryDetail)
}

// Stream answers with text/event-stream. The pipeline runs detached from the
// fasthttp request; a failed write cancels it.
func (c *diagnosisController) Stream(ctx *fiber.Ctx) error {
	var req dto.StreamDiagnosisRequest
	if err := ctx.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	userId := optionalUserID(ctx)

	ctx.Set(fiber.HeaderContentType, "text/event-stream")
	ctx.Set(fiber.HeaderCacheControl, "no-cache")
	ctx.Set(fiber.HeaderConnection, "keep-alive")
	ctx.Set("X-Accel-Buffering", "no")

	parent := context.WithoutCancel(ctx.UserContext())
	ctx.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		runCtx, cancel := context.WithCancel(parent)
		defer cancel()

		writer := sse.NewWriter(w, cancel)

		var wg sync.WaitGroup
		hbCtx, stopHeartbeat := context.WithCancel(runCtx)
		wg.Add(1)
		go func() {
			defer wg.Done()
			writer.Heartbeat(hbCtx, c.heartbeat)
		}()

		err := c.diagnosisService.Stream(runCtx, userId, req.ImageURL, writer)

		stopHeartbeat()
		wg.Wait()

		if errors.Is(err, diagnosis.ErrClientGone) || writer.Err() != nil {
			return
		}
		_ = writer.Done()
	}))

	return nil
}

func (c *diagnosisController) SuggestDiseases(ctx *fiber.Ctx) error {
	var req dto.SuggestDiseasesRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.knowledgeService.SuggestDiseases(ctx.Context(), req.Query)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Disease suggestions", res))
}

func (c *diagnosisController) LookupTreatments(ctx *fiber.Ctx) error {
	var req dto.TreatmentLookupRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.knowledgeService.LookupTreatments(ctx.Context(), &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Treatments", res))
}

func (c *diagnosisController) History(ctx *fiber.Ctx) error {
	userId, err := uuid.Parse(serverutils.UserID(ctx))
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid user")
	}

	var req dto.DiagnosisHistoryRequest
	if err := ctx.QueryParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid query")
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.historyService.List(ctx.Context(), userId, &req)
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Diagnosis history", res))
}

func (c *diagnosisController) HistoryDetail(ctx *fiber.Ctx) error {
	userId, err := uuid.Parse(serverutils.UserID(ctx))
	if err != nil {
		return fiber.NewError(fiber.StatusUnauthorized, "Invalid user")
	}
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid diagnosis id")
	}

	res, err := c.historyService.Show(ctx.Context(), userId, id)
	if errors.Is(err, service.ErrDiagnosisNotFound) {
		return fiber.NewError(fiber.StatusNotFound, "Diagnosis not found")
	}
	if err != nil {
		return err
	}
	return ctx.JSON(serverutils.SuccessResponse("Diagnosis detail", res))
}

func optionalUserID(ctx *fiber.Ctx) *uuid.UUID {
	id, err := uuid.Parse(serverutils.UserID(ctx))
	if err != nil {
		return nil
	}
	return &id
}
