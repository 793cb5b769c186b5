package http

import (
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Facturacion-api/internal/application/billing"
	"github.com/jhoicas/Facturacion-api/internal/application/dto"
)

// InvoiceHandler maneja facturas, sus ítems, la emisión y las descargas.
type InvoiceHandler struct {
	uc   *billing.InvoiceUseCase
	docs *billing.DocumentUseCase
}

// NewInvoiceHandler construye el handler de facturas.
func NewInvoiceHandler(uc *billing.InvoiceUseCase, docs *billing.DocumentUseCase) *InvoiceHandler {
	return &InvoiceHandler{uc: uc, docs: docs}
}

// Create godoc
// @Summary      Crear factura en borrador
// @Description  Los totales se calculan a partir de los ítems; no se aceptan en el cuerpo.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CreateInvoiceRequest  true  "Cliente, tipo, punto de venta e ítems"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/invoices [post]
func (h *InvoiceHandler) Create(c *fiber.Ctx) error {
	userID := GetUserID(c)
	if userID == "" {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "user_id requerido"})
	}
	var in dto.CreateInvoiceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.ClientID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "client_id es requerido"})
	}
	out, err := h.uc.Create(c.UserContext(), userID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// GetByID godoc
// @Summary      Obtener factura con sus ítems
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [get]
func (h *InvoiceHandler) GetByID(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	out, err := h.uc.GetByID(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar facturas
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        limit      query  int     false  "Límite"  default(20)
// @Param        offset     query  int     false  "Offset"  default(0)
// @Param        status     query  string  false  "DRAFT, ISSUED, PAID o CANCELLED"
// @Param        client_id  query  string  false  "ID del cliente"
// @Success      200        {object}  dto.InvoiceListResponse
// @Failure      400        {object}  dto.ErrorResponse
// @Router       /api/invoices [get]
func (h *InvoiceHandler) List(c *fiber.Ctx) error {
	in := dto.InvoiceListRequest{
		PageRequest: dto.PageRequest{Limit: c.QueryInt("limit", 20), Offset: c.QueryInt("offset", 0)},
		Status:      c.Query("status"),
		ClientID:    c.Query("client_id"),
	}
	out, err := h.uc.List(c.UserContext(), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Delete godoc
// @Summary      Eliminar factura en borrador
// @Tags         invoices
// @Security     Bearer
// @Param        id   path  string  true  "ID de la factura"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id} [delete]
func (h *InvoiceHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	if err := h.uc.Delete(c.UserContext(), id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ReplaceItems godoc
// @Summary      Reemplazar todos los ítems
// @Description  Operación atómica: si un ítem es inválido no se modifica nada.
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                          true  "ID de la factura"
// @Param        body  body  dto.ReplaceInvoiceItemsRequest  true  "Ítems"
// @Success      200   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/items [put]
func (h *InvoiceHandler) ReplaceItems(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	var in dto.ReplaceInvoiceItemsRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.ReplaceItems(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// AddItem godoc
// @Summary      Agregar ítem
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID de la factura"
// @Param        body  body  dto.InvoiceItemRequest  true  "Producto y cantidad"
// @Success      201   {object}  dto.InvoiceResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/items [post]
func (h *InvoiceHandler) AddItem(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	var in dto.InvoiceItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	if in.ProductID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "VALIDATION", Message: "product_id es requerido"})
	}
	out, err := h.uc.AddItem(c.UserContext(), id, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// UpdateItem godoc
// @Summary      Modificar cantidad o descripción de un ítem
// @Tags         invoices
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id      path  string                        true  "ID de la factura"
// @Param        itemId  path  string                        true  "ID del ítem"
// @Param        body    body  dto.UpdateInvoiceItemRequest  true  "Cambios"
// @Success      200     {object}  dto.InvoiceResponse
// @Failure      400     {object}  dto.ErrorResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/items/{itemId} [put]
func (h *InvoiceHandler) UpdateItem(c *fiber.Ctx) error {
	id, itemID := c.Params("id"), c.Params("itemId")
	if id == "" || itemID == "" {
		return missingID(c)
	}
	var in dto.UpdateInvoiceItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.UpdateItem(c.UserContext(), id, itemID, in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// RemoveItem godoc
// @Summary      Quitar ítem
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id      path  string  true  "ID de la factura"
// @Param        itemId  path  string  true  "ID del ítem"
// @Success      200     {object}  dto.InvoiceResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Failure      409     {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/items/{itemId} [delete]
func (h *InvoiceHandler) RemoveItem(c *fiber.Ctx) error {
	id, itemID := c.Params("id"), c.Params("itemId")
	if id == "" || itemID == "" {
		return missingID(c)
	}
	out, err := h.uc.RemoveItem(c.UserContext(), id, itemID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Issue godoc
// @Summary      Emitir factura
// @Description  Asigna número correlativo por punto de venta y tipo, obtiene CAE y pasa a ISSUED.
// @Tags         invoices
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {object}  dto.InvoiceResponse
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/issue [post]
func (h *InvoiceHandler) Issue(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	out, err := h.uc.Issue(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DownloadPDF godoc
// @Summary      Descargar PDF de la factura emitida
// @Tags         invoices
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la factura"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Failure      409  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/pdf [get]
func (h *InvoiceHandler) DownloadPDF(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	out, filename, err := h.docs.DownloadInvoicePDF(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Attachment(filename)
	return c.Send(out)
}

// ExportXML godoc
// @Summary      Exportar XML canónico de la factura
// @Description  Responde ETag con el SHA-256 del documento; con If-None-Match coincidente devuelve 304.
// @Tags         invoices
// @Security     Bearer
// @Produce      application/xml
// @Param        id             path    string  true   "ID de la factura"
// @Param        If-None-Match  header  string  false  "ETag conocido"
// @Success      200  {file}    binary
// @Success      304
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/xml [get]
func (h *InvoiceHandler) ExportXML(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	out, digest, filename, err := h.docs.ExportInvoiceXML(c.UserContext(), id)
	if err != nil {
		return writeError(c, err)
	}
	etag := strconv.Quote(digest)
	c.Set(fiber.HeaderETag, etag)
	if etagMatches(c.Get(fiber.HeaderIfNoneMatch), etag) {
		return c.SendStatus(fiber.StatusNotModified)
	}
	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationXMLCharsetUTF8)
	c.Attachment(filename)
	return c.Send(out)
}

// QRCode godoc
// @Summary      QR fiscal en PNG
// @Tags         invoices
// @Security     Bearer
// @Produce      image/png
// @Param        id    path   string  true   "ID de la factura"
// @Param        size  query  int     false  "Lado en píxeles (128-1024)"  default(256)
// @Success      200   {file}    binary
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/invoices/{id}/qr [get]
func (h *InvoiceHandler) QRCode(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return missingID(c)
	}
	out, err := h.docs.InvoiceQRCode(c.UserContext(), id, c.QueryInt("size", 0))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "image/png")
	return c.Send(out)
}

// etagMatches compara contra una lista de If-None-Match; admite "*" y el prefijo débil W/.
func etagMatches(header, etag string) bool {
	if header == "" {
		return false
	}
	for _, candidate := range strings.Split(header, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == "*" || candidate == etag {
			return true
		}
	}
	return false
}
