package controller

import (
	"io"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"

	"requirements-intake-be/internal/capture"
	"requirements-intake-be/internal/dto"
	"requirements-intake-be/internal/pkg/serverutils"
	"requirements-intake-be/internal/service"
)

type IIntakeController interface {
	RegisterRoutes(r fiber.Router)
}

type intakeController struct {
	intakeService     service.IIntakeService
	recordingService  service.IRecordingService
	stagingService    service.IStagingService
	submissionService service.ISubmissionService
	streamDevice      *capture.StreamDevice
}

func NewIntakeController(
	intakeService service.IIntakeService,
	recordingService service.IRecordingService,
	stagingService service.IStagingService,
	submissionService service.ISubmissionService,
	streamDevice *capture.StreamDevice,
) IIntakeController {
	return &intakeController{
		intakeService:     intakeService,
		recordingService:  recordingService,
		stagingService:    stagingService,
		submissionService: submissionService,
		streamDevice:      streamDevice,
	}
}

func (c *intakeController) RegisterRoutes(r fiber.Router) {
	h := r.Group("/intake/v1")
	h.Use(serverutils.JwtMiddleware)

	h.Post("session", c.CreateSession)
	h.Get(":id", c.Show)
	h.Delete(":id", c.DeleteSession)
	h.Put(":id/project", c.SetProjectInfo)
	h.Put(":id/mode", c.SetMode)
	h.Put(":id/text", c.SetText)

	h.Post(":id/recording/start", c.StartRecording)
	h.Post(":id/recording/stop", c.StopRecording)
	h.Post(":id/recording/clear", c.ClearRecording)
	h.Get(":id/recording/clip/:token", c.Clip)
	h.Get(":id/recording/stream", websocket.New(c.RecordingStream))

	h.Post(":id/files", c.AddFiles)
	h.Delete(":id/files/:fileId", c.RemoveFile)

	h.Post(":id/submit", c.Submit)
}

func (c *intakeController) CreateSession(ctx *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	// Body is optional; project info can be set later.
	_ = ctx.BodyParser(&req)

	res, err := c.intakeService.CreateSession(&req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success create intake session", res))
}

func (c *intakeController) Show(ctx *fiber.Ctx) error {
	id, err := sessionId(ctx)
	if err != nil {
		return err
	}

	res, err := c.intakeService.Show(id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success show intake session", res))
}

func (c *intakeController) DeleteSession(ctx *fiber.Ctx) error {
	id, err := sessionId(ctx)
	if err != nil {
		return err
	}

	if err := c.intakeService.DeleteSession(id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success delete intake session", nil))
}

func (c *intakeController) SetProjectInfo(ctx *fiber.Ctx) error {
	id, err := sessionId(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateProjectInfoRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	if err := c.intakeService.SetProjectInfo(id, &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update project info", nil))
}

func (c *intakeController) SetMode(ctx *fiber.Ctx) error {
	id, err := sessionId(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateModeRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return err
	}

	if err := c.intakeService.SetMode(id, &req); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success switch input mode", nil))
}

func (c *intakeController) SetText(ctx *fiber.Ctx) error {
	id, err := sessionId(ctx)
	if err != nil {
		return err
	}

	var req dto.UpdateTextRequest
	if err := ctx.BodyParser(&req); err != nil {
		return err
	}

	res, err := c.intakeService.SetText(id, &req)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success update text draft", res))
}

func (c *intakeController) StartRecording(ctx *fiber.Ctx) error {
	id, err := sessionId(ctx)
	if err != nil {
		return err
	}

	if err := c.recordingService.Start(id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Recording started", nil))
}

func (c *intakeController) StopRecording(ctx *fiber.Ctx) error {
	id, err := sessionId(ctx)
	if err != nil {
		return err
	}

	if err := c.recordingService.Stop(id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Recording captured", nil))
}

func (c *intakeController) ClearRecording(ctx *fiber.Ctx) error {
	id, err := sessionId(ctx)
	if err != nil {
		return err
	}

	if err := c.recordingService.Clear(id); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Recording cleared", nil))
}

func (c *intakeController) Clip(ctx *fiber.Ctx) error {
	id, err := sessionId(ctx)
	if err != nil {
		return err
	}
	token, err := uuid.Parse(ctx.Params("token"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid playback token")
	}

	data, err := c.recordingService.Clip(id, token)
	if err != nil {
		return err
	}

	ctx.Set(fiber.HeaderContentType, "audio/wav")
	return ctx.Send(data)
}

// RecordingStream receives binary audio frames from the client and feeds
// them into the live capture session. Frames arriving while no recording is
// active close the socket.
func (c *intakeController) RecordingStream(conn *websocket.Conn) {
	defer conn.Close()

	id, err := uuid.Parse(conn.Params("id"))
	if err != nil {
		return
	}

	conn.SetReadLimit(1 << 20)
	_ = conn.SetReadDeadline(time.Now().Add(10 * time.Minute))

	for {
		mt, frame, err := conn.ReadMessage()
		if err != nil {
			return
		}
		if mt != websocket.BinaryMessage {
			continue
		}

		sink, ok := c.streamDevice.Lookup(id)
		if !ok {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "no active recording"))
			return
		}
		if _, err := sink.Write(frame); err != nil {
			return
		}
	}
}

func (c *intakeController) AddFiles(ctx *fiber.Ctx) error {
	id, err := sessionId(ctx)
	if err != nil {
		return err
	}

	form, err := ctx.MultipartForm()
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Expected multipart form")
	}

	headers := form.File["files"]
	if len(headers) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "No files provided")
	}

	incoming := make([]service.IncomingFile, 0, len(headers))
	for _, h := range headers {
		f, err := h.Open()
		if err != nil {
			return err
		}
		data, err := io.ReadAll(f)
		f.Close()
		if err != nil {
			return err
		}
		incoming = append(incoming, service.IncomingFile{
			Filename:    h.Filename,
			ContentType: h.Header.Get("Content-Type"),
			Data:        data,
		})
	}

	res, err := c.stagingService.Add(id, incoming)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success stage files", res))
}

func (c *intakeController) RemoveFile(ctx *fiber.Ctx) error {
	id, err := sessionId(ctx)
	if err != nil {
		return err
	}
	fileId, err := uuid.Parse(ctx.Params("fileId"))
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid file id")
	}

	if err := c.stagingService.Remove(id, fileId); err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Success remove staged file", nil))
}

func (c *intakeController) Submit(ctx *fiber.Ctx) error {
	id, err := sessionId(ctx)
	if err != nil {
		return err
	}

	res, err := c.submissionService.Submit(ctx.Context(), id)
	if err != nil {
		return err
	}

	return ctx.JSON(serverutils.SuccessResponse("Submission finished", res))
}

func sessionId(ctx *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid session id")
	}
	return id, nil
}
