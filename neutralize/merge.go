package neutralize

import (
	"github.com/go-gl/mathgl/mgl64"
	"github.com/pkg/errors"

	"github.com/anthonyesau/blender-custom-tools/host"
)

// MergeParentInverse multiplies the parent inverse into the local transform
// of obj and resets it to identity. The single frame case of the Converter
// for objects without animation.
func MergeParentInverse(obj host.Object) error {
	if err := obj.SetMatrixBasis(obj.MatrixParentInverse().Mul4(obj.MatrixBasis())); err != nil {
		return err
	}
	obj.SetMatrixParentInverse(mgl64.Ident4())
	return nil
}

// NeutralizeTransforms moves the local transform of obj into its parent
// inverse, leaving location, rotation and scale at rest values. Animated
// objects are refused since their keyframes would bring the transform back.
func NeutralizeTransforms(obj host.Object) error {
	if obj.Parent() == nil {
		return errors.Wrapf(host.ErrNoParent, "object %q", obj.Name())
	}
	if obj.Action() != nil {
		return errors.Wrapf(host.ErrAnimated, "object %q", obj.Name())
	}

	pinv := obj.MatrixParentInverse().Mul4(obj.MatrixBasis())
	if err := obj.SetMatrixBasis(mgl64.Ident4()); err != nil {
		return err
	}
	obj.SetMatrixParentInverse(pinv)
	return nil
}

// ParentInverse dispatches obj to the Converter or to MergeParentInverse
// depending on whether it is animated.
func ParentInverse(obj host.Object, opts Options) (*Result, error) {
	if obj.Parent() == nil {
		return nil, errors.Wrapf(host.ErrNoParent, "object %q", obj.Name())
	}
	if obj.Action() == nil {
		if err := MergeParentInverse(obj); err != nil {
			return nil, err
		}
		return &Result{Object: obj.Name()}, nil
	}

	c, err := NewConverter(obj, opts)
	if err != nil {
		return nil, err
	}
	return c.Convert()
}
