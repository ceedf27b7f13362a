package controller

import (
	"fmt"
	"path/filepath"

	"sparklink-ai-be/internal/dto"
	"sparklink-ai-be/internal/pkg/serverutils"
	"sparklink-ai-be/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type IKnowledgeController interface {
	RegisterRoutes(r fiber.Router)
	Create(ctx *fiber.Ctx) error
	CreateFromURL(ctx *fiber.Ctx) error
	Upload(ctx *fiber.Ctx) error
	List(ctx *fiber.Ctx) error
	Show(ctx *fiber.Ctx) error
	Reprocess(ctx *fiber.Ctx) error
	Delete(ctx *fiber.Ctx) error
	Search(ctx *fiber.Ctx) error
}

type knowledgeController struct {
	knowledgeService service.IKnowledgeService
	uploadDir        string
}

func NewKnowledgeController(knowledgeService service.IKnowledgeService, uploadDir string) IKnowledgeController {
	return &knowledgeController{
		knowledgeService: knowledgeService,
		uploadDir:        uploadDir,
	}
}

func (c *knowledgeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/knowledge/v1")
	h.Use(serverutils.JwtMiddleware)
	h.Post("/document", c.Create)
	h.Post("/document/url", c.CreateFromURL)
	h.Post("/document/upload", c.Upload)
	h.Get("/documents", c.List)
	h.Get("/document/:id", c.Show)
	h.Post("/document/:id/reprocess", c.Reprocess)
	h.Delete("/document/:id", c.Delete)
	h.Post("/search", c.Search)
}

func (c *knowledgeController) Create(ctx *fiber.Ctx) error {
	userId := userIdFromLocals(ctx)
	groupId := groupIdFromLocals(ctx)

	var req dto.CreateDocumentRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.knowledgeService.CreateDocument(ctx.Context(), userId, groupId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Document queued for ingestion", res))
}

func (c *knowledgeController) CreateFromURL(ctx *fiber.Ctx) error {
	userId := userIdFromLocals(ctx)
	groupId := groupIdFromLocals(ctx)

	var req dto.CreateDocumentFromURLRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.knowledgeService.CreateDocumentFromURL(ctx.Context(), userId, groupId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Document queued for ingestion", res))
}

func (c *knowledgeController) Upload(ctx *fiber.Ctx) error {
	userId := userIdFromLocals(ctx)
	groupId := groupIdFromLocals(ctx)

	file, err := ctx.FormFile("file")
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Missing 'file' form field")
	}

	name := ctx.FormValue("name")
	if name == "" {
		name = file.Filename
	}

	savedPath := filepath.Join(c.uploadDir, fmt.Sprintf("%s%s", uuid.NewString(), filepath.Ext(file.Filename)))
	if err := ctx.SaveFile(file, savedPath); err != nil {
		return err
	}

	res, err := c.knowledgeService.CreateDocumentFromUpload(ctx.Context(), userId, groupId, name, savedPath)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Document queued for ingestion", res))
}

func (c *knowledgeController) List(ctx *fiber.Ctx) error {
	userId := userIdFromLocals(ctx)

	res, err := c.knowledgeService.ListDocuments(ctx.Context(), userId)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success list documents", res))
}

func (c *knowledgeController) Show(ctx *fiber.Ctx) error {
	userId := userIdFromLocals(ctx)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	res, err := c.knowledgeService.GetDocument(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show document", res))
}

func (c *knowledgeController) Reprocess(ctx *fiber.Ctx) error {
	userId := userIdFromLocals(ctx)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	res, err := c.knowledgeService.ReprocessDocument(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Document queued for ingestion", res))
}

func (c *knowledgeController) Delete(ctx *fiber.Ctx) error {
	userId := userIdFromLocals(ctx)

	idParam := ctx.Params("id")
	id, _ := uuid.Parse(idParam)

	res, err := c.knowledgeService.DeleteDocument(ctx.Context(), userId, id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete document", res))
}

func (c *knowledgeController) Search(ctx *fiber.Ctx) error {
	userId := userIdFromLocals(ctx)
	groupId := groupIdFromLocals(ctx)

	var req dto.KnowledgeSearchRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	res, err := c.knowledgeService.Search(ctx.Context(), userId, groupId, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success search knowledge base", res))
}
