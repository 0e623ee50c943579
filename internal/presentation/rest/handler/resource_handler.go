package handler

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	resourceapp "marketplace-mock/internal/application/resource"
	"marketplace-mock/internal/domain/resource"
)

const (
	// HeaderTotalCount ページング前の件数
	HeaderTotalCount = "X-Total-Count"
	// HeaderLink ページングのリンク
	HeaderLink = "Link"
)

// ResourceHandler フィクスチャリソースのCRUDハンドラー
type ResourceHandler struct {
	resourceService *resourceapp.ResourceApplicationService
}

// NewResourceHandler 新しいResourceHandlerを作成
func NewResourceHandler(resourceService *resourceapp.ResourceApplicationService) *ResourceHandler {
	return &ResourceHandler{
		resourceService: resourceService,
	}
}

// Index リソース一覧
func (h *ResourceHandler) Index(c echo.Context) error {
	descriptors, err := h.resourceService.Resources(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, IndexResponse{Resources: descriptors})
}

// Database フィクスチャ全体
func (h *ResourceHandler) Database(c echo.Context) error {
	db, err := h.resourceService.Database(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, db)
}

// List コレクションの一覧、または単一リソースを取得
func (h *ResourceHandler) List(c echo.Context) error {
	ctx := c.Request().Context()
	name := c.Param("resource")

	kind, err := h.resourceService.Kind(ctx, name)
	if err != nil {
		return err
	}

	if kind == resource.KindSingular {
		record, err := h.resourceService.GetSingular(ctx, name)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, record)
	}

	resp, err := h.resourceService.List(ctx, &resourceapp.ListRequest{
		Resource: name,
		Query:    c.QueryParams(),
	})
	if err != nil {
		return err
	}
	return h.writeList(c, resp)
}

// ListNested 親レコードに紐づく一覧を取得
func (h *ResourceHandler) ListNested(c echo.Context) error {
	resp, err := h.resourceService.ListNested(c.Request().Context(), &resourceapp.ListNestedRequest{
		Parent:   c.Param("resource"),
		ParentID: c.Param("id"),
		Resource: c.Param("nested"),
		Query:    c.QueryParams(),
	})
	if err != nil {
		return err
	}
	return h.writeList(c, resp)
}

// Get IDでレコードを取得
func (h *ResourceHandler) Get(c echo.Context) error {
	record, err := h.resourceService.Get(c.Request().Context(), c.Param("resource"), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, record)
}

// Create レコードを作成（単一リソースの場合は置き換え）
func (h *ResourceHandler) Create(c echo.Context) error {
	ctx := c.Request().Context()
	name := c.Param("resource")

	body, err := readBody(c)
	if err != nil {
		return err
	}

	kind, err := h.resourceService.Kind(ctx, name)
	if err != nil {
		return err
	}

	var record resource.Record
	if kind == resource.KindSingular {
		record, err = h.resourceService.UpdateSingular(ctx, &resourceapp.UpdateRequest{
			Resource: name,
			Body:     body,
			Mode:     resourceapp.UpdateModeReplace,
		})
	} else {
		record, err = h.resourceService.Create(ctx, &resourceapp.CreateRequest{
			Resource: name,
			Body:     body,
		})
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, record)
}

// CreateNested 親レコードに紐づくレコードを作成
func (h *ResourceHandler) CreateNested(c echo.Context) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}

	record, err := h.resourceService.CreateNested(c.Request().Context(), &resourceapp.CreateNestedRequest{
		Parent:   c.Param("resource"),
		ParentID: c.Param("id"),
		Resource: c.Param("nested"),
		Body:     body,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, record)
}

// Replace レコードを置き換え（PUT）
func (h *ResourceHandler) Replace(c echo.Context) error {
	return h.update(c, resourceapp.UpdateModeReplace)
}

// Patch レコードにマージパッチを適用（PATCH）
func (h *ResourceHandler) Patch(c echo.Context) error {
	return h.update(c, resourceapp.UpdateModePatch)
}

func (h *ResourceHandler) update(c echo.Context, mode resourceapp.UpdateMode) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}

	record, err := h.resourceService.Update(c.Request().Context(), &resourceapp.UpdateRequest{
		Resource: c.Param("resource"),
		ID:       c.Param("id"),
		Body:     body,
		Mode:     mode,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, record)
}

// ReplaceSingular 単一リソースを置き換え（PUT）
func (h *ResourceHandler) ReplaceSingular(c echo.Context) error {
	return h.updateSingular(c, resourceapp.UpdateModeReplace)
}

// PatchSingular 単一リソースにマージパッチを適用（PATCH）
func (h *ResourceHandler) PatchSingular(c echo.Context) error {
	return h.updateSingular(c, resourceapp.UpdateModePatch)
}

func (h *ResourceHandler) updateSingular(c echo.Context, mode resourceapp.UpdateMode) error {
	body, err := readBody(c)
	if err != nil {
		return err
	}

	record, err := h.resourceService.UpdateSingular(c.Request().Context(), &resourceapp.UpdateRequest{
		Resource: c.Param("resource"),
		Body:     body,
		Mode:     mode,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, record)
}

// Delete レコードを削除
func (h *ResourceHandler) Delete(c echo.Context) error {
	if err := h.resourceService.Delete(c.Request().Context(), c.Param("resource"), c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{})
}

func (h *ResourceHandler) writeList(c echo.Context, resp *resourceapp.ListResponse) error {
	if resp.Sliced {
		c.Response().Header().Set(HeaderTotalCount, strconv.Itoa(resp.Total))
	}
	if resp.Page > 0 {
		c.Response().Header().Set(HeaderLink, pageLinks(c, resp.Page, resp.LastPage))
	}
	return c.JSON(http.StatusOK, resp.Records)
}

// pageLinks first/prev/next/lastのLinkヘッダー値を組み立てる
func pageLinks(c echo.Context, page, lastPage int) string {
	base := *c.Request().URL
	base.Scheme = c.Scheme()
	base.Host = c.Request().Host

	link := func(p int, rel string) string {
		u := base
		q := u.Query()
		q.Set("_page", strconv.Itoa(p))
		u.RawQuery = q.Encode()
		return fmt.Sprintf("<%s>; rel=\"%s\"", u.String(), rel)
	}

	links := []string{link(1, "first")}
	if page > 1 {
		links = append(links, link(page-1, "prev"))
	}
	if page < lastPage {
		links = append(links, link(page+1, "next"))
	}
	links = append(links, link(lastPage, "last"))
	return strings.Join(links, ", ")
}

func readBody(c echo.Context) ([]byte, error) {
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, "failed to read request body").SetInternal(err)
	}
	return body, nil
}
