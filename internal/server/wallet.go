package server

import (
	"net/http"
	"strconv"

	walletdomain "github.com/Mayne0963/otw-chi-sub000/internal/wallet/domain"
	"github.com/gin-gonic/gin"
)

// GetWallet returns the caller's balance projection. Users who have never
// been allocated miles see an empty wallet rather than a 404.
func (s *Server) GetWallet(c *gin.Context) {
	wallet, err := s.wallets.GetByUser(c.Request.Context(), userID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if wallet == nil {
		c.JSON(http.StatusOK, gin.H{"data": walletdomain.ReadModel{}})
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": wallet.Read()})
}

func (s *Server) GetWalletLedger(c *gin.Context) {
	wallet, err := s.wallets.GetByUser(c.Request.Context(), userID(c))
	if err != nil {
		AbortWithError(c, err)
		return
	}
	if wallet == nil {
		c.JSON(http.StatusOK, gin.H{"data": []struct{}{}})
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	entries, err := s.ledger.ListForWallet(c.Request.Context(), wallet.ID, limit)
	if err != nil {
		AbortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"data": entries})
}

func (s *Server) ListPlans(c *gin.Context) {
	plans, err := s.plans.List(c.Request.Context())
	if err != nil {
		AbortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": plans})
}
