package sqlinline

const QInsertSuggestionRun = `--sql 0b065086-c30e-47c6-9435-07e79c950492
insert into suggestion_runs (
    id,
    target_model,
    provider,
    requested,
    collected,
    attempts,
    fallback_used,
    items,
    created_at
)
values (
    $1::uuid,
    $2::text,
    $3::text,
    $4::int,
    $5::int,
    $6::int,
    $7::boolean,
    $8::text[],
    $9::timestamptz
);
`

const QListSuggestionRuns = `--sql b5486695-9ff1-4aef-945b-56ca784a5971
select id, target_model, provider, requested, collected, attempts, fallback_used, created_at
from suggestion_runs
order by created_at desc
limit $1::int;
`
