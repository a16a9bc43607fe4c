package adminapi

import (
	"net/http"
	"sort"

	"github.com/labstack/echo/v4"

	"github.com/studiocraft/storefront/internal/app"
	"github.com/studiocraft/storefront/internal/webserver"
)

type settingItem struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

func registerSettingsRoutes() {
	webserver.ApiGET("/admin/settings", listSettings)
	webserver.ApiPUT("/admin/settings", updateSettings)
}

func listSettings(c echo.Context) error {
	all := GetAppContext(c).ConfigMgr().All()
	items := make([]settingItem, 0, len(all))
	for k, v := range all {
		items = append(items, settingItem{Key: k, Value: v})
	}
	sort.Slice(items, func(i, j int) bool { return items[i].Key < items[j].Key })
	return ok(c, items)
}

// updateSettings saves a {"category.name": value} map
func updateSettings(c echo.Context) error {
	var payload map[string]interface{}
	if err := c.Bind(&payload); err != nil {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "Unable to parse settings", err.Error())
	}
	if len(payload) == 0 {
		return fail(c, http.StatusBadRequest, "INVALID_REQUEST", "No settings given", nil)
	}
	for key := range payload {
		if _, _, valid := app.SplitKey(key); !valid {
			return fail(c, http.StatusBadRequest, "INVALID_KEY", "Setting keys must look like category.name", key)
		}
	}
	if err := GetAppContext(c).SaveSettings(payload); err != nil {
		return fail(c, http.StatusInternalServerError, "DATABASE_ERROR", "Failed to save settings", err.Error())
	}
	logOperation(c, "settings_update", "update settings")
	return listSettings(c)
}
