package ops

import (
	"context"
	"fmt"

	"github.com/anthonyesau/blender-custom-tools/host"
	"github.com/anthonyesau/blender-custom-tools/neutralize"
	"github.com/anthonyesau/blender-custom-tools/relate"
)

const (
	IDNeutralizeParentInverse = "object.neutralize_parent_inverse"
	IDNeutralizeTransforms    = "object.neutralize_transforms"
	IDRelateDrivers           = "object.relate_drivers"
)

type NeutralizeParentInverse struct{}

func (NeutralizeParentInverse) IDName() string { return IDNeutralizeParentInverse }
func (NeutralizeParentInverse) Label() string  { return "Neutralize Parent Inverse" }
func (NeutralizeParentInverse) Description() string {
	return "Clear the parent inverse matrix while maintaining objects' current transforms"
}

func (NeutralizeParentInverse) Poll(sel host.Selection) error { return pollActive(sel) }

func (op NeutralizeParentInverse) Execute(ctx context.Context, sel host.Selection) *Report {
	opts := neutralize.Options{
		Log:    conversionLog(ctx),
		Logger: LoggerFromContext(ctx),
	}
	return run(ctx, op, sel, func(obj host.Object) ([]string, error) {
		res, err := neutralize.ParentInverse(obj, opts)
		if err != nil {
			return nil, err
		}
		if len(res.Frames) == 0 {
			return []string{"merged"}, nil
		}
		return []string{fmt.Sprintf("%d frames rewritten", len(res.Frames))}, nil
	})
}

type NeutralizeTransforms struct{}

func (NeutralizeTransforms) IDName() string { return IDNeutralizeTransforms }
func (NeutralizeTransforms) Label() string  { return "Neutralize Transforms" }
func (NeutralizeTransforms) Description() string {
	return "Move location, rotation and scale into the parent inverse matrix"
}

func (NeutralizeTransforms) Poll(sel host.Selection) error { return pollActive(sel) }

func (op NeutralizeTransforms) Execute(ctx context.Context, sel host.Selection) *Report {
	return run(ctx, op, sel, func(obj host.Object) ([]string, error) {
		return nil, neutralize.NeutralizeTransforms(obj)
	})
}

type RelateDrivers struct{}

func (RelateDrivers) IDName() string { return IDRelateDrivers }
func (RelateDrivers) Label() string  { return "Relate Drivers" }
func (RelateDrivers) Description() string {
	return "Point driver variables named self or parent at the object or its parent"
}

func (RelateDrivers) Poll(sel host.Selection) error { return pollActive(sel) }

// Execute never fails an object: variables that could not be matched are
// listed in the details
func (op RelateDrivers) Execute(ctx context.Context, sel host.Selection) *Report {
	logger := LoggerFromContext(ctx)
	return run(ctx, op, sel, func(obj host.Object) ([]string, error) {
		res := relate.Drivers(obj)
		details := make([]string, 0, len(res.Variables))
		for _, v := range res.Variables {
			if v.Err != nil {
				logger.Warn("Variable skipped", "object", obj.Name(), "variable", v.Name, "err", v.Err)
			}
			details = append(details, v.String())
		}
		return details, nil
	})
}

func init() {
	SetOperator(NeutralizeParentInverse{})
	SetOperator(NeutralizeTransforms{})
	SetOperator(RelateDrivers{})
}
