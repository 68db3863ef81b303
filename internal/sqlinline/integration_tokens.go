package sqlinline

const QSelectIntegrationToken = `--sql 9f77ccbe-acfb-4ee8-9138-318e1ac3591b
select token
from integration_tokens
where provider = $1::text
limit 1;
`

const QUpsertIntegrationToken = `--sql f6a6d663-938f-439e-9b37-d5d6038c7925
with incoming as (
    select
        $1::text as provider,
        $2::text as token,
        coalesce($3::jsonb, '{}'::jsonb) as properties
)
insert into integration_tokens (id, provider, token, properties, created_at, updated_at)
select gen_random_uuid(), provider, token, properties, now(), now()
from incoming
on conflict (provider) do update set
    token = excluded.token,
    properties = excluded.properties,
    updated_at = now();
`
