package handlers_test

import (
	"DriveKeeper/internal/model"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandlers_RequiresUser(t *testing.T) {
	router, _ := newHandlersTestRouter(t)

	rr := do(t, router, http.MethodGet, "/api/drives", 0, "", nil)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	rr = do(t, router, http.MethodGet, "/healthz", 0, "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)
}

func TestHandlers_RegisterDrive_And_Views(t *testing.T) {
	router, _ := newHandlersTestRouter(t)

	info := model.DriveInfo{UniqueIdentifier: "SN-1", MountPoint: "/media/usb", DriveType: "usb", VolumeLabel: "Stick"}

	// без X-Client-ID
	rr := do(t, router, http.MethodPost, "/api/drives", 1, "", info)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodPost, "/api/drives", 1, "laptop", info)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	d := decode[model.Drive](t, rr)
	assert.Equal(t, "SN-1", d.UniqueIdentifier)
	assert.Len(t, d.Mounts, 1)

	info.MountPoint = "/mnt/stick"
	rr = do(t, router, http.MethodPost, "/api/drives", 1, "desktop", info)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[model.Drive](t, rr).Mounts, 2)

	rr = do(t, router, http.MethodGet, "/api/drives", 1, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Drive](t, rr), 1)

	rr = do(t, router, http.MethodGet, "/api/drives/"+d.ID, 1, "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/drives/"+d.ID, 2, "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/drives/by-identifier/SN-1", 1, "", nil)
	assert.Equal(t, http.StatusOK, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/drives/by-identifier/UNKNOWN", 1, "", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/drives/client", 1, "desktop", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Drive](t, rr), 1)

	rr = do(t, router, http.MethodGet, "/api/drives/lookup?path="+url.QueryEscape("/mnt/stick/a/b"), 1, "desktop", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, d.ID, decode[model.Drive](t, rr).ID)

	rr = do(t, router, http.MethodGet, "/api/drives/lookup?path="+url.QueryEscape("/home/x"), 1, "desktop", nil)
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandlers_RegisterDrive_ValidationIs400(t *testing.T) {
	router, _ := newHandlersTestRouter(t)

	rr := do(t, router, http.MethodPost, "/api/drives", 1, "c", model.DriveInfo{UniqueIdentifier: "X", MountPoint: "/m", DriveType: "tape"})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodPost, "/api/drives/batch", 1, "c", []model.DriveInfo{
		{UniqueIdentifier: "A", MountPoint: "/a", DriveType: "usb"},
		{UniqueIdentifier: "", MountPoint: "/b", DriveType: "usb"},
	})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/drives", 1, "", nil)
	assert.Empty(t, decode[[]model.Drive](t, rr))
}

func TestHandlers_Availability_And_Offline(t *testing.T) {
	router, _ := newHandlersTestRouter(t)

	cloud := model.DriveInfo{UniqueIdentifier: "gdrive:me", MountPoint: "/cloud/g", DriveType: "cloud", CloudProvider: "GoogleDrive"}
	rr := do(t, router, http.MethodPost, "/api/drives/batch", 1, "c1", []model.DriveInfo{cloud})
	require.Equal(t, http.StatusOK, rr.Code)

	yes, no := true, false
	rr = do(t, router, http.MethodPut, "/api/drives/by-identifier/"+url.PathEscape("gdrive:me")+"/availability", 1, "c1", map[string]*bool{"available": &no})
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
	assert.False(t, decode[model.Drive](t, rr).IsAvailable)

	rr = do(t, router, http.MethodPut, "/api/drives/by-identifier/gdrive:me/availability", 1, "c1", map[string]*bool{"available": &yes})
	require.Equal(t, http.StatusOK, rr.Code)
	assert.True(t, decode[model.Drive](t, rr).IsAvailable)

	rr = do(t, router, http.MethodPut, "/api/drives/by-identifier/gdrive:me/availability", 1, "c1", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, router, http.MethodPut, "/api/drives/by-identifier/nope/availability", 1, "c1", map[string]*bool{"available": &yes})
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = do(t, router, http.MethodGet, "/api/drives/cloud?provider=googledrive", 1, "", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, decode[[]model.Drive](t, rr), 1)

	rr = do(t, router, http.MethodPost, "/api/clients/offline", 1, "c1", nil)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, int64(1), decode[map[string]int64](t, rr)["updated"])
}

func TestHandlers_StorageFailureIs500(t *testing.T) {
	router, db := newHandlersTestRouter(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	rr := do(t, router, http.MethodGet, "/api/drives", 1, "", nil)
	assert.Equal(t, http.StatusInternalServerError, rr.Code)

	rr = do(t, router, http.MethodGet, "/healthz", 0, "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}
