package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"sugarsphere/internal/models"
)

func (suite *mongoHandlerSuite) TestRestockQuantityBounds() {
	tests := []struct {
		name       string
		quantity   int
		wantStatus int
		wantStock  int
	}{
		{
			name:       "positive restock adds stock",
			quantity:   7,
			wantStatus: http.StatusOK,
			wantStock:  12,
		},
		{
			name:       "zero restock is a valid no-op",
			quantity:   0,
			wantStatus: http.StatusOK,
			wantStock:  5,
		},
		{
			name:       "negative restock is rejected",
			quantity:   -3,
			wantStatus: http.StatusBadRequest,
			wantStock:  5,
		},
	}

	for _, tt := range tests {
		suite.Run(tt.name, func() {
			t := suite.T()

			product := suite.insertProduct(5)
			handler := RestockProduct(suite.db)

			w := performJSON(t, handler, primitive.NewObjectID(), http.MethodPost,
				"/admin/api/products/"+product.ID.Hex()+"/restock",
				gin.H{"quantity": tt.quantity},
				gin.Param{Key: "id", Value: product.ID.Hex()})
			require.Equal(t, tt.wantStatus, w.Code, w.Body.String())

			assert.Equal(t, tt.wantStock, suite.productQuantity(product.ID))

			if tt.wantStatus == http.StatusOK {
				var updated models.Product
				require.NoError(t, json.Unmarshal(w.Body.Bytes(), &updated))
				assert.Equal(t, tt.wantStock, updated.Quantity)
				assert.True(t, updated.InStock)
			}
		})
	}
}
