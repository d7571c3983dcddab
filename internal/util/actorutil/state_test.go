package actorutil

import (
	"testing"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
)

type namedState string

func (s namedState) Name() string {
	return string(s)
}

func (s namedState) Receive(actor.Context) {}

func TestActorWithStatesName(t *testing.T) {

	assert := assert.New(t)

	s := ActorWithStates{Behavior: actor.NewBehavior()}
	assert.Empty(s.StateName())

	s.Become(namedState("idle"))
	assert.Equal("idle", s.StateName())

	s.BecomeStacked(namedState("awaiting"))
	assert.Equal("awaiting", s.StateName())

	s.UnbecomeStacked()
	assert.Equal("idle", s.StateName())

	s.BecomeStacked(namedState("awaiting"))
	s.Become(namedState("running"))
	assert.Equal("running", s.StateName())
}
