package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
	"github.com/aws/aws-sdk-go-v2/service/ssm/types"
	"github.com/stretchr/testify/require"
)

type fakeAPI struct {
	values map[string]string
	err    error
	asked  []string
}

func (f *fakeAPI) GetParameter(_ context.Context, in *ssm.GetParameterInput, _ ...func(*ssm.Options)) (*ssm.GetParameterOutput, error) {
	f.asked = append(f.asked, aws.ToString(in.Name))
	if f.err != nil {
		return nil, f.err
	}
	if !aws.ToBool(in.WithDecryption) {
		return nil, errors.New("decryption not requested")
	}
	v, ok := f.values[aws.ToString(in.Name)]
	if !ok {
		return &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: in.Name}}, nil
	}
	return &ssm.GetParameterOutput{Parameter: &types.Parameter{Name: in.Name, Value: aws.String(v)}}, nil
}

func TestGetParameter(t *testing.T) {
	store, err := New(&fakeAPI{values: map[string]string{"/superbot/hf": "hf-secret"}})
	require.NoError(t, err)

	v, err := store.GetParameter(context.Background(), " /superbot/hf ")
	require.NoError(t, err)
	require.Equal(t, "hf-secret", v)

	_, err = store.GetParameter(context.Background(), "/superbot/missing")
	require.ErrorContains(t, err, "no value")

	_, err = store.GetParameter(context.Background(), "  ")
	require.ErrorContains(t, err, "required")
}

func TestGetParameterAPIError(t *testing.T) {
	store, err := New(&fakeAPI{err: errors.New("access denied")})
	require.NoError(t, err)

	_, err = store.GetParameter(context.Background(), "/p")
	require.ErrorContains(t, err, "access denied")
}

func TestNewRejectsNilAPI(t *testing.T) {
	_, err := New(nil)
	require.Error(t, err)

	_, err = (&ParameterStore{}).GetParameter(context.Background(), "/p")
	require.ErrorContains(t, err, "not initialized")
}

func TestResolveKeepsExistingValues(t *testing.T) {
	api := &fakeAPI{values: map[string]string{
		"/superbot/openrouter": "or-secret\n",
		"/superbot/hf":         "hf-secret",
	}}
	store, err := New(api)
	require.NoError(t, err)

	openRouter := ""
	hf := "from-env"
	unused := ""
	require.NoError(t, Resolve(context.Background(), store,
		Target{Param: "/superbot/openrouter", Dst: &openRouter},
		Target{Param: "/superbot/hf", Dst: &hf},
		Target{Param: "", Dst: &unused},
	))

	require.Equal(t, "or-secret", openRouter)
	require.Equal(t, "from-env", hf)
	require.Empty(t, unused)
	require.Equal(t, []string{"/superbot/openrouter"}, api.asked)
}

func TestResolvePropagatesErrors(t *testing.T) {
	store, err := New(&fakeAPI{err: errors.New("throttled")})
	require.NoError(t, err)

	key := ""
	err = Resolve(context.Background(), store, Target{Param: "/p", Dst: &key})
	require.ErrorContains(t, err, "throttled")
}
