package registry

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"gomall/internal/api/controllers"
	"gomall/internal/errs"
	"gomall/internal/models"
	"gomall/internal/services"

	"gorm.io/gorm"
)

// RegisterCatalogRoutes binds generic CRUD routes for the catalog
// models. The protected group carries the authorization guard, so
// access control is a matter of which role holds which (path, method)
// permission; product browsing stays on the public group so visitors
// can see the storefront.
func RegisterCatalogRoutes(public, g *echo.Group, db *gorm.DB) {
	// Brands
	brandController := controllers.NewBaseController(services.NewBaseService(db, models.Brand{}))
	brandGroup := g.Group("/brands")
	brandGroup.GET("", brandController.List)
	brandGroup.GET("/:id", brandController.Get)
	brandGroup.POST("", brandController.Create)
	brandGroup.PUT("/:id", brandController.Update)
	brandGroup.DELETE("/:id", brandController.Delete)

	// Categories
	categoryController := controllers.NewBaseController(services.NewBaseService(db, models.Category{}))
	categoryGroup := g.Group("/categories")
	categoryGroup.GET("", categoryController.List)
	categoryGroup.GET("/:id", categoryController.Get)
	categoryGroup.POST("", categoryController.Create)
	categoryGroup.PUT("/:id", categoryController.Update)
	categoryGroup.DELETE("/:id", categoryController.Delete)

	// Products
	productController := controllers.NewBaseController(services.NewBaseService(db, models.Product{}))
	public.GET("/products", productController.List)
	public.GET("/products/:id", productController.Get)
	productGroup := g.Group("/products")
	productGroup.POST("", productController.Create)
	productGroup.PUT("/:id", productController.Update)
	productGroup.DELETE("/:id", productController.Delete)

	// Product translations
	translationController := controllers.NewBaseController(services.NewBaseService(db, models.ProductTranslation{}))
	translationGroup := g.Group("/product-translations")
	translationGroup.GET("", translationController.List)
	translationGroup.GET("/:id", translationController.Get)
	translationGroup.POST("", translationController.Create)
	translationGroup.PUT("/:id", translationController.Update)
	translationGroup.DELETE("/:id", translationController.Delete)

	// SKUs
	skuController := controllers.NewBaseController(services.NewBaseService(db, models.SKU{}))
	skuGroup := g.Group("/skus")
	skuGroup.GET("", skuController.List)
	skuGroup.GET("/:id", skuController.Get)
	skuGroup.POST("", skuController.Create)
	skuGroup.PUT("/:id", skuController.Update)
	skuGroup.DELETE("/:id", skuController.Delete)

	// Languages are the one catalog entity with a hard delete: removing
	// a language is administrative cleanup and cascades to translations.
	languageController := controllers.NewBaseController(services.NewBaseService(db, models.Language{}))
	languageGroup := g.Group("/languages")
	languageGroup.GET("", languageController.List)
	languageGroup.GET("/:id", languageController.Get)
	languageGroup.POST("", languageController.Create)
	languageGroup.PUT("/:id", languageController.Update)
	languageGroup.DELETE("/:id", deleteLanguage(db))
}

func deleteLanguage(db *gorm.DB) echo.HandlerFunc {
	return func(ctx echo.Context) error {
		id := ctx.Param("id")
		if id == "" {
			return errs.Validation("MISSING_ID", "missing id parameter")
		}

		err := db.WithContext(ctx.Request().Context()).Transaction(func(tx *gorm.DB) error {
			if err := tx.Unscoped().Where("language_id = ?", id).
				Delete(&models.ProductTranslation{}).Error; err != nil {
				return err
			}
			result := tx.Unscoped().Where("id = ?", id).Delete(&models.Language{})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				return errs.ErrNotFoundRecord
			}
			return nil
		})
		if err != nil {
			return err
		}
		return ctx.NoContent(http.StatusNoContent)
	}
}
