package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wellybot/wgvpn-admin/docs"
)

// OpenAPIDoc returns the OpenAPI document registered with swag.
func OpenAPIDoc(c *gin.Context) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", []byte(docs.SwaggerInfo.ReadDoc()))
}
