package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"shop_visit_app_go/models"
)

func TestCustomerService(t *testing.T) {
	db := setupServiceTestDB(t)

	t.Run("create and fetch", func(t *testing.T) {
		customer := models.Customer{
			ShopName:      "Healthy Harvest",
			ShopType:      "supermarket",
			City:          "Galway",
			ContactPerson: "Niamh Byrne",
		}
		assert.NoError(t, CreateCustomer(db, &customer))
		assert.NotEmpty(t, customer.ID)

		got, err := GetCustomerByID(db, customer.ID)
		assert.NoError(t, err)
		assert.Equal(t, "Healthy Harvest", got.ShopName)
		assert.True(t, got.IsActive())
	})

	t.Run("search matches shop name and city", func(t *testing.T) {
		assert.NoError(t, CreateCustomer(db, &models.Customer{ShopName: "Quay Pharmacy", City: "Limerick"}))

		byName, err := ListCustomers(db, "Quay")
		assert.NoError(t, err)
		assert.Len(t, byName, 1)

		byCity, err := ListCustomers(db, "Galway")
		assert.NoError(t, err)
		assert.Len(t, byCity, 1)
		assert.Equal(t, "Healthy Harvest", byCity[0].ShopName)

		all, err := ListCustomers(db, "")
		assert.NoError(t, err)
		assert.Len(t, all, 2)
	})

	t.Run("partial update", func(t *testing.T) {
		customers, _ := ListCustomers(db, "Quay")
		id := customers[0].ID

		assert.NoError(t, UpdateCustomer(db, id, map[string]interface{}{
			"contact_phone": "+353 61 555 0199",
			"status":        models.CustomerStatusInactive,
		}))

		got, err := GetCustomerByID(db, id)
		assert.NoError(t, err)
		assert.Equal(t, "+353 61 555 0199", got.ContactPhone)
		assert.False(t, got.IsActive())
	})

	t.Run("soft delete", func(t *testing.T) {
		customer := models.Customer{ShopName: "Closing Down"}
		assert.NoError(t, CreateCustomer(db, &customer))
		assert.NoError(t, DeleteCustomer(db, customer.ID))

		_, err := GetCustomerByID(db, customer.ID)
		assert.Error(t, err)
	})
}
