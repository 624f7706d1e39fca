// README: Form helpers: CPF and phone masking for the ride form.
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"quickride/internal/format"
)

func FormatCPF(c *gin.Context) {
	v := c.Query("value")
	writeJSON(c, http.StatusOK, gin.H{
		"valid":  format.ValidCPF(v),
		"masked": format.MaskCPF(v),
		"hidden": format.MaskHiddenCPF(v),
	})
}

func FormatPhone(c *gin.Context) {
	v := c.Query("value")
	writeJSON(c, http.StatusOK, gin.H{
		"valid":  format.ValidPhone(v),
		"masked": format.MaskPhone(v),
	})
}
