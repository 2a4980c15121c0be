package web

import (
	"bytes"
	"net/http"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/anthonyesau/blender-custom-tools/ops"
	"github.com/anthonyesau/blender-custom-tools/scene"
	"github.com/anthonyesau/blender-custom-tools/webutils"
)

type jsonObject struct {
	Name          string       `json:"name"`
	Parent        string       `json:"parent,omitempty"`
	Selected      bool         `json:"selected"`
	Active        bool         `json:"active"`
	RotationMode  string       `json:"rotation_mode"`
	Location      [3]float64   `json:"location"`
	Rotation      []float64    `json:"rotation"`
	Scale         [3]float64   `json:"scale"`
	ParentInverse *[16]float64 `json:"matrix_parent_inverse,omitempty"`
	World         [16]float64  `json:"matrix_world"`
	Frames        []float64    `json:"frames,omitempty"`
	Drivers       int          `json:"drivers,omitempty"`
}

type jsonScene struct {
	FrameCurrent float64      `json:"frame_current"`
	FPS          float64      `json:"fps"`
	Objects      []jsonObject `json:"objects"`
}

func marshalScene(s *scene.Scene) jsonScene {
	res := jsonScene{FrameCurrent: s.FrameCurrent, FPS: s.FPS, Objects: make([]jsonObject, 0)}
	for _, o := range s.Objects() {
		rot, _ := o.Property(o.RotationMode().DataPath())
		jo := jsonObject{
			Name:         o.Name(),
			Selected:     o.Selected,
			Active:       s.Active() == o,
			RotationMode: o.RotationMode().String(),
			Location:     o.Location,
			Rotation:     rot,
			Scale:        o.Scale,
			World:        o.MatrixWorld(),
			Drivers:      len(o.DriverList()),
		}
		if p := o.ParentObject(); p != nil {
			jo.Parent = p.Name()
		}
		if o.ParentInverse != mgl64.Ident4() {
			pinv := [16]float64(o.ParentInverse)
			jo.ParentInverse = &pinv
		}
		if a := o.Animation(); a != nil {
			jo.Frames = a.Frames()
		}
		res.Objects = append(res.Objects, jo)
	}
	return res
}

func (srv *Server) HandlerJsonScene(w http.ResponseWriter, r *http.Request) {
	srv.lock.Lock()
	defer srv.lock.Unlock()
	webutils.WriteJson(w, marshalScene(srv.scene))
}

type jsonSelect struct {
	Selected []string `json:"selected"`
	Active   string   `json:"active"`
}

func (srv *Server) HandlerJsonSelect(w http.ResponseWriter, r *http.Request) {
	var req jsonSelect
	if err := webutils.ReadJson(r, &req); err != nil {
		webutils.WriteError(w, err)
		return
	}

	srv.lock.Lock()
	defer srv.lock.Unlock()
	// check both before changing anything
	if req.Active != "" && srv.scene.Object(req.Active) == nil {
		webutils.WriteError(w, errors.Errorf("Object %q not found", req.Active))
		return
	}
	if err := srv.scene.Select(req.Selected...); err != nil {
		webutils.WriteError(w, err)
		return
	}
	srv.scene.SetActive(req.Active)
	webutils.WriteJson(w, marshalScene(srv.scene))
}

type jsonOperator struct {
	IDName      string `json:"idname"`
	Label       string `json:"label"`
	Description string `json:"description"`
	// why the operator can not run on the current selection
	Poll string `json:"poll,omitempty"`
}

func (srv *Server) HandlerJsonOperators(w http.ResponseWriter, r *http.Request) {
	srv.lock.Lock()
	defer srv.lock.Unlock()

	res := make([]jsonOperator, 0)
	for _, op := range ops.Operators() {
		jo := jsonOperator{IDName: op.IDName(), Label: op.Label(), Description: op.Description()}
		if err := op.Poll(srv.scene); err != nil {
			jo.Poll = err.Error()
		}
		res = append(res, jo)
	}
	webutils.WriteJson(w, res)
}

func (srv *Server) HandlerAction(w http.ResponseWriter, r *http.Request) {
	op, err := ops.GetOperator(mux.Vars(r)["operator"])
	if err != nil {
		webutils.WriteErrorStatus(w, err, http.StatusNotFound)
		return
	}

	ctx := ops.WithLogger(r.Context(), srv.opts.Logger)
	ctx = ops.WithProgress(ctx, srv.hub.Progress)
	ctx = ops.WithConversionLog(ctx, srv.opts.ConversionLog)

	srv.lock.Lock()
	defer srv.lock.Unlock()

	report := op.Execute(ctx, srv.scene)
	if report.Status == ops.StatusCancelled {
		srv.hub.Error("%s cancelled: %s", op.Label(), report.Error)
	}
	webutils.WriteJson(w, report)
}

func (srv *Server) HandlerDumpScene(w http.ResponseWriter, r *http.Request) {
	format, err := scene.ParseFormat(mux.Vars(r)["format"])
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	srv.lock.Lock()
	defer srv.lock.Unlock()

	var buf bytes.Buffer
	if err := srv.scene.Save(&buf, format); err != nil {
		webutils.WriteErrorStatus(w, errors.Wrapf(err, "Failed to save scene"), http.StatusInternalServerError)
		return
	}
	webutils.WriteFile(w, &buf, "scene"+format.Ext())
}

func (srv *Server) HandlerUploadScene(w http.ResponseWriter, r *http.Request) {
	data, name, err := webutils.ReadFormFile(r, "data")
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	format, err := scene.FormatFromName(name)
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	s, err := scene.Load(bytes.NewReader(data), format)
	if err != nil {
		webutils.WriteError(w, errors.Wrapf(err, "Failed to load %q", name))
		return
	}

	srv.lock.Lock()
	defer srv.lock.Unlock()
	srv.scene = s
	srv.hub.Info("Loaded %s, %d objects", name, len(s.Objects()))
	webutils.WriteJson(w, marshalScene(s))
}
