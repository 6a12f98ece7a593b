package actor

// Step applies a reducer to a single (state, input) pair without executing
// effects. Reducer unit tests use it to drive transitions directly.
func Step[S any](state S, input Input, reducer ReducerFunc[S]) (S, []Effect) {
	return reducer(state, input)
}

// Steps folds a sequence of inputs through reducer and returns the final state
// together with every effect produced, in order.
func Steps[S any](state S, reducer ReducerFunc[S], inputs ...Input) (S, []Effect) {
	var all []Effect
	for _, in := range inputs {
		var effects []Effect
		state, effects = reducer(state, in)
		all = append(all, effects...)
	}
	return state, all
}
